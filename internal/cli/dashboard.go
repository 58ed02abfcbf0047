package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"pet-vaccine-tracker/internal/domain/dashboard"
	"pet-vaccine-tracker/internal/domain/pets"
	"pet-vaccine-tracker/internal/domain/vaccines"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
)

type dashboardView struct {
	Stats       dashboard.Stats `json:"stats"`
	RecentPets  []petRow        `json:"recent_pets"`
	DueVaccines []vaccineRow    `json:"due_vaccines"`
}

type petRow struct {
	Name    string `json:"name"`
	Species string `json:"species"`
	Weight  string `json:"weight,omitempty"`
}

type vaccineRow struct {
	Pet        string          `json:"pet"`
	Name       string          `json:"name"`
	NextDoseOn vaccines.Date   `json:"next_dose_on"`
	Status     vaccines.Status `json:"status"`
}

func newDashboardCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Resumen de mascotas y refuerzos vencidos o próximos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := a.requireSession(cmd.Context())
			if err != nil {
				return err
			}

			ps, err := a.api.ListPets(cmd.Context(), snap.User.ID, snap.Token)
			if err != nil {
				return describe("dashboard", err)
			}
			listed, err := a.api.ListVaccines(cmd.Context(), snap.User.ID, snap.Token)
			if err != nil {
				return describe("dashboard", err)
			}

			view := buildDashboard(ps, listed, time.Now())
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(view)
			}
			return renderDashboard(cmd.OutOrStdout(), snap.User.Name, view)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "salida en JSON")
	return cmd
}

// buildDashboard calcula lo mismo que GET /users/{id}/dashboard pero del lado
// del cliente, a partir de los listados.
func buildDashboard(ps []pets.Pet, listed []vaccines.Listed, now time.Time) dashboardView {
	vs := make([]vaccines.Vaccine, 0, len(listed))
	for _, l := range listed {
		vs = append(vs, l.Vaccine)
	}

	view := dashboardView{
		Stats:       dashboard.Aggregate(ps, vs, now),
		RecentPets:  []petRow{},
		DueVaccines: []vaccineRow{},
	}
	for _, p := range dashboard.RecentPets(ps, dashboard.RecentPetsLimit) {
		row := petRow{Name: p.Name, Species: p.Species}
		if p.Weight != nil {
			row.Weight = strconv.FormatFloat(*p.Weight, 'f', -1, 64) + " kg"
		}
		view.RecentPets = append(view.RecentPets, row)
	}

	due := make([]vaccines.Listed, 0, len(listed))
	for _, l := range listed {
		if l.StatusAt(now) != vaccines.StatusCurrent {
			due = append(due, l)
		}
	}
	vaccines.SortByNextDose(due)
	for _, l := range due {
		view.DueVaccines = append(view.DueVaccines, vaccineRow{
			Pet:        l.PetName,
			Name:       l.Name,
			NextDoseOn: l.NextDoseOn,
			Status:     l.StatusAt(now),
		})
	}
	return view
}

func renderDashboard(w io.Writer, userName string, v dashboardView) error {
	fmt.Fprintf(w, "Hola, %s\n\n", userName)
	fmt.Fprintf(w, "Mascotas: %d  Vacunas: %d  Próximas: %d  Vencidas: %s\n\n",
		v.Stats.TotalPets,
		v.Stats.TotalVaccines,
		v.Stats.UpcomingVaccines,
		color.New(color.FgRed).Sprint(v.Stats.OverdueVaccines),
	)

	if len(v.RecentPets) > 0 {
		rows := make([][]string, 0, len(v.RecentPets))
		for _, p := range v.RecentPets {
			rows = append(rows, []string{p.Name, p.Species, p.Weight})
		}
		if err := renderTable(w, []string{"MASCOTA", "ESPECIE", "PESO"}, rows); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}

	if len(v.DueVaccines) == 0 {
		fmt.Fprintln(w, "Sin refuerzos pendientes.")
		return nil
	}
	rows := make([][]string, 0, len(v.DueVaccines))
	for _, d := range v.DueVaccines {
		rows = append(rows, []string{d.Pet, d.Name, d.NextDoseOn.String(), statusLabel(d.Status)})
	}
	return renderTable(w, []string{"MASCOTA", "VACUNA", "REFUERZO", "ESTADO"}, rows)
}

func statusLabel(s vaccines.Status) string {
	switch s {
	case vaccines.StatusOverdue:
		return color.New(color.FgRed).Sprint(string(s))
	case vaccines.StatusUpcoming:
		return color.New(color.FgYellow).Sprint(string(s))
	default:
		return string(s)
	}
}

func renderTable(w io.Writer, header []string, rows [][]string) error {
	t := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.Off},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{ShowHeader: tw.Off},
			},
		}),
	)
	t.Header(header)
	if err := t.Bulk(rows); err != nil {
		return err
	}
	return t.Render()
}
