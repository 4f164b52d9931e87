package main

import (
	"fmt"
	"io"
	"slices"
	"text/template"
	"time"

	"github.com/plus3/arenaduel/duel"
	"github.com/plus3/arenaduel/ecs"
)

type Report struct {
	// Configuration
	Rounds     int
	Interval   time.Duration
	Tick       time.Duration
	Background bool
	Obstacles  int
	Session    string

	// Results
	PlayedRounds int
	TotalTime    time.Duration
	Ticks        uint64
	Bullets      uint64
	Hits         uint64
	GameOver     bool
	Winner       duel.EntityID
	Players      []PlayerSummary
	Scheduler    *ecs.SchedulerStats
	Storage      ecs.StorageStats
	JSONBytes    int
	MsgpackBytes int
}

type PlayerSummary struct {
	ID       duel.EntityID
	HP       int
	Armor    int
	X, Y     float64
	Blocking bool
}

func playerSummaries(s duel.Snapshot) []PlayerSummary {
	summaries := make([]PlayerSummary, 0, len(s.Players))
	for _, id := range s.Players {
		state, ok := s.Entities[id]
		if !ok || state.HP == nil || state.Armor == nil || state.IsBlocking == nil {
			continue
		}
		summaries = append(summaries, PlayerSummary{
			ID:       id,
			HP:       *state.HP,
			Armor:    *state.Armor,
			X:        state.X,
			Y:        state.Y,
			Blocking: *state.IsBlocking,
		})
	}
	slices.SortFunc(summaries, func(a, b PlayerSummary) int {
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return summaries
}

func (r *Report) measureEncodings(s duel.Snapshot) error {
	data, err := s.JSON()
	if err != nil {
		return err
	}
	r.JSONBytes = len(data)

	packed, err := duel.EncodeSnapshot(s)
	if err != nil {
		return err
	}
	r.MsgpackBytes = len(packed)
	return nil
}

func (r *Report) Generate(w io.Writer) error {
	const reportTemplate = `
# Duel Report

## Configuration
- **Session:** {{.Session}}
- **Rounds:** {{.PlayedRounds}} of {{.Rounds}} every {{.Interval}}
- **Tick:** {{.Tick}} ({{if .Background}}background loop{{else}}pull model{{end}})
- **Obstacles:** {{.Obstacles}}

## Outcome
- **Ticks:** {{.Ticks}}
- **Bullets Fired:** {{.Bullets}}
- **Hits:** {{.Hits}}
- **Game Over:** {{.GameOver}}{{if .Winner}}
- **Winner:** {{.Winner}}{{end}}
- **Wall Time:** {{.TotalTime}}
{{range .Players}}
- Player {{.ID}}: hp {{.HP}}, armor {{.Armor}}, at ({{f1 .X}}, {{f1 .Y}}){{if .Blocking}}, blocking{{end}}{{end}}

## Systems
{{range .Scheduler.Systems}}- **{{.Name}}:** {{.ExecutionCount}} runs, avg {{.AvgDuration}}, min {{.MinDuration}}, max {{.MaxDuration}}
{{end}}
## Storage (before teardown)
- **Entities:** {{.Storage.TotalEntityCount}} in {{.Storage.ArchetypeCount}} archetypes, {{.Storage.SingletonCount}} singletons
{{range .Storage.ArchetypeBreakdown}}- {{.EntityCount}} x {{join .Components}}
{{end}}
## Final Snapshot
- JSON: {{.JSONBytes}} bytes
- Msgpack: {{.MsgpackBytes}} bytes ({{pct .MsgpackBytes .JSONBytes}} of JSON)
`

	fm := template.FuncMap{
		"f1": func(v float64) string {
			return fmt.Sprintf("%.1f", v)
		},
		"pct": func(a, b int) string {
			if b == 0 {
				return "N/A"
			}
			return fmt.Sprintf("%.0f%%", 100*float64(a)/float64(b))
		},
		"join": func(names []string) string {
			out := ""
			for i, name := range names {
				if i > 0 {
					out += ", "
				}
				out += name
			}
			return out
		},
	}

	tmpl, err := template.New("report").Funcs(fm).Parse(reportTemplate)
	if err != nil {
		return err
	}

	return tmpl.Execute(w, r)
}
