package cli

import (
	"bufio"
	"encoding/json"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/royalrew/sintari-relations-sub003/internal/intent"
	"github.com/royalrew/sintari-relations-sub003/internal/resolver"
)

func init() {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Run a multi-turn session over stdin",
		Long: "Read one utterance per line, carry the active subject from turn to turn " +
			"and print one JSON object per turn. Repeated utterances and subject " +
			"interjections are throttled with the cooldown TTL.",
		Args: cobra.NoArgs,
		RunE: withEngine(runChat),
	}

	cmd.Flags().String("hint", "", "Active subject id to start from")

	RootCmd.AddCommand(cmd)
}

// Interjection notes that the conversation moved to a new or different
// subject. Rendering it as text is up to the reply layer.
type Interjection struct {
	Kind      string `json:"kind"`
	SubjectID string `json:"subject_id"`
	Name      string `json:"name"`
}

type chatTurn struct {
	Turn             int            `json:"turn"`
	Text             string         `json:"text"`
	Result           *intent.Result `json:"result,omitempty"`
	RepeatSuppressed bool           `json:"repeat_suppressed,omitempty"`
	TTLRemainingMS   int64          `json:"ttl_remaining_ms,omitempty"`
	Interjection     *Interjection  `json:"interjection,omitempty"`
}

func cooldownKey(user, subject, kind string) string {
	return user + ":" + subject + ":" + kind
}

func runChat(cmd *cobra.Command, args []string, e *engine) error {
	hint, _ := cmd.Flags().GetString("hint")
	ctx := cmd.Context()
	enc := json.NewEncoder(cmd.OutOrStdout())

	sc := bufio.NewScanner(cmd.InOrStdin())
	n := 0
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		n++
		now := time.Now()
		out := chatTurn{Turn: n, Text: line}

		repeat := e.cooldown.Ping(cooldownKey(cfg.User, resolver.Normalize(line), "repeat"), now)
		if repeat.Suppressed {
			out.RepeatSuppressed = true
			out.TTLRemainingMS = repeat.Remaining.Milliseconds()
			if err := enc.Encode(out); err != nil {
				return err
			}
			continue
		}

		res := e.hook.Turn(ctx, intent.Turn{Text: line, HintSubjectID: hint})
		out.Result = &res

		if res.SubjectID != "" && (res.SubjectID != hint || res.Outcome == intent.OutcomeCreated) {
			kind := "subject_switch"
			if res.Outcome == intent.OutcomeCreated {
				kind = "new_subject"
			}
			if !e.cooldown.Ping(cooldownKey(cfg.User, res.SubjectID, "interject"), now).Suppressed {
				out.Interjection = &Interjection{Kind: kind, SubjectID: res.SubjectID, Name: res.Name}
			}
		}
		hint = res.SubjectID

		if err := enc.Encode(out); err != nil {
			return err
		}
	}
	return sc.Err()
}
