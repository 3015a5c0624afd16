package oracles

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Oracle struct {
	Name string
	SQL  string
}

func All() []Oracle {
	return []Oracle{
		{
			// Terminated is terminal: no recorded transition ever leaves it.
			Name: "O1_terminated_is_terminal",
			SQL: `SELECT agreement_id, payload FROM timeline_events
                  WHERE payload->>'previous_status' = 'terminated'`,
		},
		{
			// Nothing transitions back into draft.
			Name: "O2_no_return_to_draft",
			SQL: `SELECT agreement_id, payload FROM timeline_events
                  WHERE payload->>'next_status' = 'draft'`,
		},
		{
			Name: "O3_timeline_seq_monotonic",
			SQL: `WITH seqs AS (
                      SELECT agreement_id, seq,
                             LAG(seq) OVER (PARTITION BY agreement_id ORDER BY seq) AS prev
                      FROM timeline_events)
                  SELECT * FROM seqs WHERE prev IS NOT NULL AND seq <= prev`,
		},
		{
			// Only one draft -> active flip can win per agreement.
			Name: "O4_single_activation",
			SQL: `SELECT agreement_id FROM timeline_events
                  WHERE payload->>'next_status' = 'active'
                  GROUP BY agreement_id HAVING COUNT(*) > 1`,
		},
		{
			// Direct and webhook terminations race, but at most one commits.
			Name: "O5_single_termination",
			SQL: `SELECT agreement_id FROM timeline_events
                  WHERE type = 'AGREEMENT_TERMINATED'
                  GROUP BY agreement_id HAVING COUNT(*) > 1`,
		},
		{
			Name: "O6_status_change_stamped",
			SQL: `SELECT id FROM agreements
                  WHERE status <> 'draft' AND status_updated_at IS NULL`,
		},
		{
			Name: "O7_terminated_has_event",
			SQL: `SELECT a.id FROM agreements a
                  WHERE a.status = 'terminated'
                    AND NOT EXISTS (
                        SELECT 1 FROM timeline_events e
                        WHERE e.agreement_id = a.id AND e.type = 'AGREEMENT_TERMINATED')`,
		},
		{
			Name: "O8_outbox_not_stale",
			SQL: `SELECT id, topic, attempts FROM outbox
                  WHERE status = 'pending' AND now() - created_at > interval '5 minutes'`,
		},
	}
}

// Run executes all oracles and returns the first failure (name and sample row text) or empty name if all pass.
func Run(ctx context.Context, pool *pgxpool.Pool) (string, string, error) {
	for _, o := range All() {
		rows, err := pool.Query(ctx, o.SQL)
		if err != nil {
			return o.Name, "", fmt.Errorf("oracle %s: %w", o.Name, err)
		}
		has := rows.Next()
		if has {
			vals, err := rows.Values()
			rows.Close()
			if err != nil {
				return o.Name, "", err
			}
			return o.Name, fmt.Sprintf("%v", vals), nil
		}
		rows.Close()
	}
	return "", "", nil
}
