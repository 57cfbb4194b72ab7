package inventory_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/jtoledo/betriebsportal/internal"
	"github.com/jtoledo/betriebsportal/internal/inventory"
)

type mockRangeReader struct {
	grid      [][]string
	err       error
	lastRange string
}

func (m *mockRangeReader) ReadRange(ctx context.Context, a1Range string) ([][]string, error) {
	m.lastRange = a1Range
	if m.err != nil {
		return nil, m.err
	}
	return m.grid, nil
}

var _ = Describe("SheetReportSource", func() {
	var (
		reader *mockRangeReader
		source inventory.ReportSource
		ctx    context.Context
	)

	BeforeEach(func() {
		reader = &mockRangeReader{}
		source = inventory.NewSheetReportSource(reader)
		ctx = context.Background()
	})

	It("reads the header row at the fixed offset and data until a blank first cell", func() {
		reader.grid = [][]string{
			{"Artikel", "Bestand", "Einheit"},
			{"Schrauben 4x40", "120", "Stück"},
			{"Dübel 8mm", "12", "Stück"},
			{"", "ignored"},
			{"Nach der Lücke", "99"},
		}

		headers, rows, ok, err := source.Read(ctx, "L00")
		Expect(err).ToNot(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(headers).To(Equal([]string{"Artikel", "Bestand", "Einheit"}))
		Expect(rows).To(HaveLen(2), "rows after the first blank article cell are not data")
		Expect(reader.lastRange).To(Equal("'L00'!A3:L"))
	})

	It("reports a missing report tab as not-ok, not as an error", func() {
		reader.err = internal.NewNotFoundError("Tabellenblatt \"L99\" nicht gefunden", internal.ErrCodeSheetNotFound)

		_, _, ok, err := source.Read(ctx, "L99")
		Expect(err).ToNot(HaveOccurred())
		Expect(ok).To(BeFalse())
	})

	It("propagates other storage errors", func() {
		reader.err = internal.NewStorageError("Fehler beim Zugriff auf das Google Sheet", nil)

		_, _, _, err := source.Read(ctx, "L00")
		Expect(err).To(HaveOccurred())
	})

	It("treats an empty or headerless grid as not-ok", func() {
		reader.grid = nil
		_, _, ok, err := source.Read(ctx, "L00")
		Expect(err).ToNot(HaveOccurred())
		Expect(ok).To(BeFalse())

		reader.grid = [][]string{{"   "}}
		_, _, ok, err = source.Read(ctx, "L00")
		Expect(err).ToNot(HaveOccurred())
		Expect(ok).To(BeFalse())
	})
})
