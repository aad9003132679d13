package report_test

import (
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/xuri/excelize/v2"

	"github.com/sertech/docflow/internal/report"
)

func TestReport(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Report Suite")
}

var header = []string{
	"Número de Orden de Compra (OC)",
	"Ruc",
	"Factura",
	"Recepciones",
	"Secuencia de pre-registro",
	"Fecha de emisión de CP",
}

func writeReport(path string, rows [][]string) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		Expect(err).To(BeNil())
		Expect(f.SetSheetRow(sheet, cell, &row)).To(Succeed())
	}
	Expect(f.SaveAs(path)).To(Succeed())
}

func readReport(path string) [][]string {
	f, err := excelize.OpenFile(path)
	Expect(err).To(BeNil())
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	Expect(err).To(BeNil())
	return rows
}

var _ = Describe("deduplicate", func() {
	It("drops rows repeating the full document key", func() {
		path := filepath.Join(GinkgoT().TempDir(), "PE02_Reporte de Contabilidad.xlsx")
		writeReport(path, [][]string{
			header,
			{"4300018211", "20100113612", "F001-123", "1", "A", "15/07/2024"},
			{"4300018211", "20100113612", "F001-123", "1", "A", "15/07/2024"},
			{"4300018211", "20100113612", "F001-124", "1", "A", "15/07/2024"},
		})

		out, removed, err := report.Deduplicate(path)
		Expect(err).To(BeNil())
		Expect(removed).To(Equal(1))
		Expect(filepath.Base(out)).To(Equal("PE02_Reporte de Contabilidad_limpio.xlsx"))

		rows := readReport(out)
		Expect(rows).To(HaveLen(3))
		Expect(rows[0]).To(Equal(header))
	})

	It("treats case and surrounding spaces as insignificant", func() {
		path := filepath.Join(GinkgoT().TempDir(), "report.xlsx")
		writeReport(path, [][]string{
			header,
			{"4300018211", "20100113612", "f001-123 ", "1", "a", "15/07/2024"},
			{"4300018211", "20100113612", " F001-123", "1", "A", "16/07/2024"},
		})

		_, removed, err := report.Deduplicate(path)
		Expect(err).To(BeNil())
		Expect(removed).To(Equal(1))
	})

	It("keeps rows differing in any key column", func() {
		path := filepath.Join(GinkgoT().TempDir(), "report.xlsx")
		writeReport(path, [][]string{
			header,
			{"4300018211", "20100113612", "F001-123", "1", "A", "15/07/2024"},
			{"4300018211", "20100113612", "F001-123", "2", "A", "15/07/2024"},
		})

		_, removed, err := report.Deduplicate(path)
		Expect(err).To(BeNil())
		Expect(removed).To(Equal(0))
	})

	It("fails when a key column is missing", func() {
		path := filepath.Join(GinkgoT().TempDir(), "report.xlsx")
		writeReport(path, [][]string{{"Columna rara"}, {"x"}})

		_, _, err := report.Deduplicate(path)
		Expect(err).ToNot(BeNil())
		Expect(err.Error()).To(ContainSubstring("not found"))
	})
})

var _ = Describe("filter by date", func() {
	It("keeps only rows matching the target date, in place", func() {
		path := filepath.Join(GinkgoT().TempDir(), "report.xlsx")
		writeReport(path, [][]string{
			header,
			{"4300018211", "20100113612", "F001-123", "1", "A", "15/07/2024"},
			{"4300018211", "20100113612", "F001-124", "1", "A", "16/07/2024"},
			{"4300018211", "20100113612", "F001-125", "1", "A", "15/07/2024 10:30"},
		})

		kept, err := report.FilterByDate(path, "15/07/2024")
		Expect(err).To(BeNil())
		Expect(kept).To(Equal(2))

		rows := readReport(path)
		Expect(rows).To(HaveLen(3))
	})

	It("leaves only the header when nothing matches", func() {
		path := filepath.Join(GinkgoT().TempDir(), "report.xlsx")
		writeReport(path, [][]string{
			header,
			{"4300018211", "20100113612", "F001-123", "1", "A", "15/07/2024"},
		})

		kept, err := report.FilterByDate(path, "01/01/2030")
		Expect(err).To(BeNil())
		Expect(kept).To(Equal(0))

		rows := readReport(path)
		Expect(rows).To(HaveLen(1))
	})
})
