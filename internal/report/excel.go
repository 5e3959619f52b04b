// Package report renders fault views and summaries into xlsx workbooks.
package report

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/frahmantamala/fault-tracker/internal/core/clock"
	"github.com/frahmantamala/fault-tracker/internal/fault"
	"github.com/frahmantamala/fault-tracker/internal/summary"
	"github.com/xuri/excelize/v2"
)

const (
	defaultSheet = "Sheet1"
	dateLayout   = "02/01/2006 15:04"
	maxSheetName = 31
)

var ErrEmptyHint = stderrors.New("report hint must not be empty")

// ExcelSink writes every view to <dir>/<hint>.xlsx.
type ExcelSink struct {
	dir string
}

func NewExcelSink(dir string) *ExcelSink {
	return &ExcelSink{dir: dir}
}

// Path is where a given hint ends up on disk.
func (s *ExcelSink) Path(hint string) string {
	return filepath.Join(s.dir, filepath.Base(hint)+".xlsx")
}

var faultHeaders = []string{"ID", "Descripción", "Estado", "Sección", "Máquina", "Reportado por", "Técnico", "Creado", "Actualizado"}

func (s *ExcelSink) WriteFault(ctx context.Context, view fault.View, hint string) error {
	return s.WriteFaults(ctx, []fault.View{view}, hint)
}

func (s *ExcelSink) WriteFaults(ctx context.Context, views []fault.View, hint string) error {
	return s.write(ctx, hint, func(g *generator) error {
		rows := make([][]interface{}, 0, len(views))
		for _, v := range views {
			rows = append(rows, faultRow(v))
		}
		return g.addTable("Averias", faultHeaders, rows)
	})
}

func (s *ExcelSink) WriteSummary(ctx context.Context, sum summary.Summary, hint string) error {
	return s.write(ctx, hint, func(g *generator) error {
		overview := [][]interface{}{
			{"Periodo", sum.Window.MonthName() + " " + fmt.Sprint(sum.Window.Year)},
			{"Total", sum.Total},
			{string(fault.StatePending), sum.ByState.Pending},
			{string(fault.StateInProgress), sum.ByState.InProgress},
			{string(fault.StateResolved), sum.ByState.Resolved},
		}
		for _, rc := range sum.ByRole {
			overview = append(overview, []interface{}{"Usuarios " + string(rc.Role), rc.Count})
		}
		if err := g.addTable("Resumen", []string{"Indicador", "Valor"}, overview); err != nil {
			return err
		}

		groupings := []struct {
			sheet   string
			buckets []summary.Bucket
		}{
			{"Secciones", sum.BySection},
			{"Maquinas", sum.ByMachine},
			{"Tecnicos", sum.ByTechnician},
		}
		for _, grouping := range groupings {
			if err := g.addTable(grouping.sheet, bucketHeaders, bucketRows(grouping.buckets)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *ExcelSink) write(ctx context.Context, hint string, fill func(*generator) error) error {
	if strings.TrimSpace(hint) == "" {
		return ErrEmptyHint
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	g := &generator{file: excelize.NewFile()}
	defer g.file.Close()

	if err := fill(g); err != nil {
		return err
	}

	if idx, _ := g.file.GetSheetIndex(defaultSheet); idx != -1 {
		if err := g.file.DeleteSheet(defaultSheet); err != nil {
			return fmt.Errorf("failed to delete default sheet: %w", err)
		}
	}
	g.file.SetActiveSheet(0)

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	if err := g.file.SaveAs(s.Path(hint)); err != nil {
		return fmt.Errorf("failed to save report %q: %w", hint, err)
	}
	return nil
}

var bucketHeaders = []string{"ID", "Nombre", "Total", string(fault.StatePending), string(fault.StateInProgress), string(fault.StateResolved)}

func bucketRows(buckets []summary.Bucket) [][]interface{} {
	rows := make([][]interface{}, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, []interface{}{b.ID, b.Name, b.Total, b.States.Pending, b.States.InProgress, b.States.Resolved})
	}
	return rows
}

func faultRow(v fault.View) []interface{} {
	updated := ""
	if v.UpdatedAt != nil {
		updated = formatTime(*v.UpdatedAt)
	}
	return []interface{}{
		v.ID,
		v.Description,
		string(v.State),
		v.Section,
		v.Machine,
		v.ReportedBy,
		v.AssignedTechnician,
		formatTime(v.CreatedAt),
		updated,
	}
}

func formatTime(t time.Time) string {
	return clock.In(t).Format(dateLayout)
}

type generator struct {
	file *excelize.File
}

// addTable creates a sheet with a styled header row followed by rows.
func (g *generator) addTable(name string, headers []string, rows [][]interface{}) error {
	sheet := truncateSheetName(name)
	if _, err := g.file.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %q: %w", sheet, err)
	}

	headerStyle, err := g.file.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Vertical: "center", Horizontal: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := g.file.SetSheetRow(sheet, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	if err := g.file.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle); err != nil {
		return fmt.Errorf("failed to style headers: %w", err)
	}
	if err := g.file.SetColWidth(sheet, "A", lastCol, 18); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}

	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := g.file.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	return nil
}

func truncateSheetName(name string) string {
	if utf8.RuneCountInString(name) > maxSheetName {
		return string([]rune(name)[:maxSheetName])
	}
	return name
}
