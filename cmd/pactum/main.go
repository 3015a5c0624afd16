package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "pactum",
	Short: "Pactum CLI",
	Long: `Pactum manages legal agreements against a running Pactum API.
Agreements start as drafts, become active once both sides commit, and end
terminated. Terminated is final; there is no way back.`,
	SilenceUsage: true,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("PACTUM")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().String("api", "http://localhost:8080", "base URL of the Pactum API")
	rootCmd.PersistentFlags().String("token", "", "bearer token (or PACTUM_TOKEN)")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	_ = viper.BindPFlag("api", rootCmd.PersistentFlags().Lookup("api"))
	_ = viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func registerCommands() {
	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(agreementCmd())
	rootCmd.AddCommand(counterpartyCmd())
}

func loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Exchange credentials for a bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" || password == "" {
				return fmt.Errorf("--email and --password required")
			}
			var out struct {
				Token string `json:"token"`
			}
			err := apiCall(cmd.Context(), http.MethodPost, "/v1/auth/login",
				map[string]any{"email": email, "password": password}, &out)
			if err != nil {
				return err
			}
			fmt.Println(out.Token)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func agreementCmd() *cobra.Command {
	ag := &cobra.Command{Use: "agreement", Short: "Manage agreements"}
	ag.AddCommand(agreementListCmd())
	ag.AddCommand(agreementCreateCmd())
	ag.AddCommand(agreementShowCmd())
	ag.AddCommand(agreementActivateCmd())
	ag.AddCommand(agreementTerminateCmd())
	return ag
}

type agreementRow struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	CounterpartyID string `json:"counterparty_id"`
	StartDate      string `json:"start_date"`
	Status         string `json:"status"`
}

func agreementListCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List agreements",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/v1/agreements"
			if status != "" {
				path += "?status=" + status
			}
			var out struct {
				Agreements []agreementRow `json:"agreements"`
				Total      int            `json:"total"`
			}
			if err := apiCall(cmd.Context(), http.MethodGet, path, nil, &out); err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(out)
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"ID", "Name", "Counterparty", "Start", "Status"})
			for _, a := range out.Agreements {
				tw.AppendRow(table.Row{a.ID, a.Name, a.CounterpartyID, a.StartDate, a.Status})
			}
			tw.Render()
			fmt.Printf("total: %d\n", out.Total)
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "filter by status (draft|active|terminated)")
	return cmd
}

func agreementCreateCmd() *cobra.Command {
	var name, counterpartyID, startDate string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a draft agreement",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" || counterpartyID == "" {
				return fmt.Errorf("--name and --counterparty required")
			}
			if startDate == "" {
				startDate = time.Now().UTC().Format("2006-01-02")
			}
			var out agreementRow
			err := apiCall(cmd.Context(), http.MethodPost, "/v1/agreements", map[string]any{
				"name":            name,
				"counterparty_id": counterpartyID,
				"start_date":      startDate,
			}, &out)
			if err != nil {
				return err
			}
			return printJSON(out)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "agreement name")
	cmd.Flags().StringVar(&counterpartyID, "counterparty", "", "counterparty id")
	cmd.Flags().StringVar(&startDate, "start", "", "start date YYYY-MM-DD (default today)")
	return cmd
}

func agreementShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one agreement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out agreementRow
			if err := apiCall(cmd.Context(), http.MethodGet, "/v1/agreements/"+args[0], nil, &out); err != nil {
				return err
			}
			return printJSON(out)
		},
	}
}

func agreementActivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "activate <id>",
		Short: "Activate a draft agreement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := apiCall(cmd.Context(), http.MethodPost, "/v1/agreements/"+args[0]+"/activate", nil, nil); err != nil {
				return err
			}
			fmt.Println("activated")
			return nil
		},
	}
}

func agreementTerminateCmd() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "terminate <id>",
		Short: "Terminate an active agreement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{"reason": reason}
			if err := apiCall(cmd.Context(), http.MethodPost, "/v1/agreements/"+args[0]+"/terminate", body, nil); err != nil {
				return err
			}
			fmt.Println("terminated")
			return nil
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "termination reason")
	return cmd
}

func counterpartyCmd() *cobra.Command {
	cp := &cobra.Command{Use: "counterparty", Short: "Browse counterparties"}
	cp.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List counterparties",
		RunE: func(cmd *cobra.Command, args []string) error {
			var out struct {
				Counterparties []struct {
					ID        string `json:"id"`
					LegalName string `json:"legal_name"`
					Verified  bool   `json:"verified"`
				} `json:"counterparties"`
			}
			if err := apiCall(cmd.Context(), http.MethodGet, "/v1/counterparties", nil, &out); err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(out)
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"ID", "Legal Name", "Verified"})
			for _, c := range out.Counterparties {
				tw.AppendRow(table.Row{c.ID, c.LegalName, c.Verified})
			}
			tw.Render()
			return nil
		},
	})
	return cp
}

func apiCall(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, viper.GetString("api")+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := viper.GetString("token"); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var envelope struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		data, _ := io.ReadAll(resp.Body)
		if err := json.Unmarshal(data, &envelope); err == nil && envelope.Error.Message != "" {
			return fmt.Errorf("%s: %s", envelope.Error.Code, envelope.Error.Message)
		}
		return fmt.Errorf("api returned %s", resp.Status)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
