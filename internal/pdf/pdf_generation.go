package pdf

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"

	"projectcrm/internal/models"
)

// Generator renders planning reports.
type Generator interface {
	RenderBudget(w io.Writer, s models.BudgetSummary) error
	SaveBudget(s models.BudgetSummary) (string, error)
}

type DocumentGenerator struct {
	RootDir  string // where SaveBudget writes, e.g. "./files"
	FontPath string // optional UTF-8 TTF; core Helvetica otherwise
	fontName string
	now      func() time.Time
}

func NewDocumentGenerator(rootDir, fontPath string) *DocumentGenerator {
	return &DocumentGenerator{
		RootDir:  filepath.Clean(rootDir),
		FontPath: fontPath,
		fontName: "Helvetica",
		now:      time.Now,
	}
}

func (g *DocumentGenerator) RenderBudget(w io.Writer, s models.BudgetSummary) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Budget summary: %s", s.ProjectName), true)
	pdf.SetAuthor("projectcrm", false)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	font := g.setupFont(pdf)
	pdf.AddPage()

	pdf.SetFont(font, "B", 18)
	pdf.CellFormat(0, 10, "BUDGET SUMMARY", "", 1, "C", false, 0, "")
	pdf.SetFont(font, "", 12)
	pdf.CellFormat(0, 7, fmt.Sprintf("%s  (#%d)  %s", s.ProjectName, s.ProjectID, g.now().Format("02.01.2006")),
		"", 1, "C", false, 0, "")
	hr(pdf)

	sectionTitle(pdf, font, "Totals")
	kvLine(pdf, font, "Budget", money(s.Budget, s.Currency))
	kvLine(pdf, font, "Actual cost", fmt.Sprintf("%.2f %s", s.ActualCost, s.Currency))
	kvLine(pdf, font, "Variance", money(s.Variance, s.Currency))
	if s.Utilization != nil {
		kvLine(pdf, font, "Utilization", fmt.Sprintf("%.2f%%", *s.Utilization))
	} else {
		kvLine(pdf, font, "Utilization", "n/a")
	}
	status := "within budget"
	if s.IsOverBudget {
		status = "OVER BUDGET"
	}
	kvLine(pdf, font, "Status", status)
	kvLine(pdf, font, "Billable time", fmt.Sprintf("%d min (%.2f h)", s.TotalBillableMinutes, s.TotalBillableHours))
	pdf.Ln(2)
	hr(pdf)

	sectionTitle(pdf, font, "Tasks")
	widths := []float64{80, 25, 20, 30, 15}
	header := []string{"Task", "Minutes", "Hours", "Amount", "Entries"}
	pdf.SetFont(font, "B", 10)
	for i, h := range header {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont(font, "", 10)
	for _, line := range s.Tasks {
		pdf.CellFormat(widths[0], 6, line.TaskTitle, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, fmt.Sprintf("%d", line.BillableMinutes), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 6, fmt.Sprintf("%.2f", line.BillableHours), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, fmt.Sprintf("%.2f", line.BillingAmount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 6, fmt.Sprintf("%d", line.EntriesCount), "1", 1, "R", false, 0, "")
	}

	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(font, "", 9)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render budget pdf: %w", err)
	}
	return nil
}

// SaveBudget writes the report under RootDir and returns its public path.
func (g *DocumentGenerator) SaveBudget(s models.BudgetSummary) (string, error) {
	absPath, err := g.ensureTarget(fmt.Sprintf("budget_project_%d.pdf", s.ProjectID))
	if err != nil {
		return "", err
	}
	f, err := os.Create(absPath)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", absPath, err)
	}
	if err := g.RenderBudget(f, s); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return "/" + filepath.ToSlash(filepath.Base(absPath)), nil
}

func (g *DocumentGenerator) ensureTarget(filename string) (string, error) {
	if err := os.MkdirAll(g.RootDir, 0o755); err != nil {
		return "", fmt.Errorf("create files dir: %w", err)
	}
	return filepath.Join(g.RootDir, filepath.Base(filename)), nil
}

// setupFont registers the UTF-8 font when one is configured and present.
func (g *DocumentGenerator) setupFont(pdf *gofpdf.Fpdf) string {
	if g.FontPath == "" {
		return g.fontName
	}
	if _, err := os.Stat(g.FontPath); err != nil {
		return g.fontName
	}
	pdf.AddUTF8Font("DejaVu", "", g.FontPath)
	pdf.AddUTF8Font("DejaVu", "B", g.FontPath)
	return "DejaVu"
}

func money(v *float64, currency string) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f %s", *v, currency)
}

func sectionTitle(pdf *gofpdf.Fpdf, font, s string) {
	pdf.SetFont(font, "B", 12)
	pdf.CellFormat(0, 7, s, "", 1, "L", false, 0, "")
	pdf.SetFont(font, "", 11)
}

func kvLine(pdf *gofpdf.Fpdf, font, key, val string) {
	pdf.SetFont(font, "B", 11)
	pdf.CellFormat(45, 6, key+":", "", 0, "L", false, 0, "")
	pdf.SetFont(font, "", 11)
	pdf.CellFormat(0, 6, val, "", 1, "L", false, 0, "")
}

func hr(pdf *gofpdf.Fpdf) {
	y := pdf.GetY() + 1.5
	pdf.SetLineWidth(0.2)
	pdf.Line(20, y, 190, y)
	pdf.SetY(y + 2)
}
