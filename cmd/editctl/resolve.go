package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"timeline-editor/internal/editor"
	"timeline-editor/internal/timeline"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type resolveOutput struct {
	Segments []timeline.KeepSegment `json:"segments" yaml:"segments"`
	Empty    bool                   `json:"empty" yaml:"empty"`
	Kept     float64                `json:"kept_seconds" yaml:"kept_seconds"`
	Dropped  int                    `json:"dropped" yaml:"dropped"`
}

type historyFlags struct {
	path     string
	duration float64
}

func (f *historyFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.path, "history", "", "edit history file (JSON, or YAML by extension; - for stdin)")
	cmd.Flags().Float64Var(&f.duration, "duration", 0, "media duration in seconds")
	_ = cmd.MarkFlagRequired("history")
	_ = cmd.MarkFlagRequired("duration")
}

func (f *historyFlags) load(cmd *cobra.Command) ([]timeline.Edit, int, error) {
	if f.duration <= 0 {
		return nil, 0, errors.New("--duration must be positive")
	}
	edits, dropped, err := loadHistory(f.path, cmd.InOrStdin())
	if err != nil {
		return nil, 0, err
	}
	if dropped > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "dropped %d malformed history entries\n", dropped)
	}
	return edits, dropped, nil
}

func newResolveCmd() *cobra.Command {
	var hf historyFlags
	var format, title, locator string
	var fps float64

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve an edit history into keep-segments",
		RunE: func(cmd *cobra.Command, args []string) error {
			edits, dropped, err := hf.load(cmd)
			if err != nil {
				return err
			}
			h := timeline.NewHistory(hf.duration)
			dropped += h.SetFromExternal(edits)
			segs := h.Resolve()
			if segs == nil {
				segs = []timeline.KeepSegment{}
			}
			out := resolveOutput{
				Segments: segs,
				Empty:    len(segs) == 0,
				Kept:     timeline.TotalLength(segs),
				Dropped:  dropped,
			}

			switch format {
			case "json":
				return writeJSON(cmd.OutOrStdout(), out)
			case "yaml":
				return yaml.NewEncoder(cmd.OutOrStdout()).Encode(out)
			case "edl":
				if title == "" {
					title = hf.path
				}
				_, err := io.WriteString(cmd.OutOrStdout(), editor.BuildEDL(title, locator, segs, fps))
				return err
			default:
				return fmt.Errorf("unknown format %q (want json, yaml or edl)", format)
			}
		},
	}
	hf.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json, yaml or edl")
	cmd.Flags().Float64Var(&fps, "fps", editor.DefaultFrameRate, "frame rate for EDL timecodes")
	cmd.Flags().StringVar(&title, "title", "", "EDL title (defaults to the history path)")
	cmd.Flags().StringVar(&locator, "locator", "", "media path written into the EDL")
	return cmd
}

func newRulerCmd() *cobra.Command {
	var hf historyFlags
	var ticks int

	cmd := &cobra.Command{
		Use:   "ruler",
		Short: "Print ruler ticks for the history's visible window",
		RunE: func(cmd *cobra.Command, args []string) error {
			edits, _, err := hf.load(cmd)
			if err != nil {
				return err
			}
			h := timeline.NewHistory(hf.duration)
			h.SetFromExternal(edits)
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"window": h.Window(),
				"ticks":  timeline.RulerTicks(h.Window(), h.Splices(), ticks),
			})
		},
	}
	hf.register(cmd)
	cmd.Flags().IntVar(&ticks, "ticks", 10, "number of tick intervals")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
