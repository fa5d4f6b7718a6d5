package food

import (
	"diningsync/lib/textutil"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

type column struct {
	header string
	get    func(r Record) string
	set    func(r *Record, cell string)
}

func valueColumn(header string, field func(r *Record) *Value) column {
	return column{
		header: header,
		get: func(r Record) string {
			return field(&r).String()
		},
		set: func(r *Record, cell string) {
			*field(r) = ParseValue(cell)
		},
	}
}

func textColumn(header string, field func(r *Record) *string) column {
	return column{
		header: header,
		get: func(r Record) string {
			return *field(&r)
		},
		set: func(r *Record, cell string) {
			cell = textutil.CleanText(cell)
			if strings.EqualFold(cell, Unknown) {
				cell = ""
			}
			*field(r) = cell
		},
	}
}

const (
	HeaderName         = "Food Name"
	HeaderServingGrams = "Serving Size (g)"
	HeaderServingSize  = "Serving Size"
)

// columns is the fixed order of the queue file, the core label fields
// first and the rest of the label after them.
var columns = []column{
	textColumn("Date", func(r *Record) *string { return &r.Date }),
	textColumn("Location", func(r *Record) *string { return &r.Location }),
	textColumn("Meal", func(r *Record) *string { return &r.Meal }),
	{
		header: HeaderName,
		get:    func(r Record) string { return r.Name },
		// names feed identity keys, so only the outer whitespace is touched
		set: func(r *Record, cell string) { r.Name = strings.TrimSpace(cell) },
	},
	valueColumn(HeaderServingGrams, func(r *Record) *Value { return &r.ServingGrams }),
	valueColumn("Calories", func(r *Record) *Value { return &r.Calories }),
	valueColumn("Total Fat", func(r *Record) *Value { return &r.TotalFat }),
	valueColumn("Saturated Fat", func(r *Record) *Value { return &r.SaturatedFat }),
	valueColumn("Total Carbohydrate", func(r *Record) *Value { return &r.Carbohydrates }),
	valueColumn("Protein", func(r *Record) *Value { return &r.Protein }),
	valueColumn("Sugars", func(r *Record) *Value { return &r.Sugars }),
	valueColumn("Sodium", func(r *Record) *Value { return &r.Sodium }),

	valueColumn("Trans Fat", func(r *Record) *Value { return &r.TransFat }),
	valueColumn("Cholesterol", func(r *Record) *Value { return &r.Cholesterol }),
	valueColumn("Dietary Fiber", func(r *Record) *Value { return &r.DietaryFiber }),
	textColumn(HeaderServingSize, func(r *Record) *string { return &r.ServingSize }),
	textColumn("Ingredients", func(r *Record) *string { return &r.Ingredients }),
	valueColumn("Calories from Fat", func(r *Record) *Value { return &r.CaloriesFromFat }),
	valueColumn("Vitamin A", func(r *Record) *Value { return &r.VitaminA }),
	valueColumn("Vitamin C", func(r *Record) *Value { return &r.VitaminC }),
	valueColumn("Calcium", func(r *Record) *Value { return &r.Calcium }),
	valueColumn("Iron", func(r *Record) *Value { return &r.Iron }),
}

// Headers lists the CSV header row in the order WriteCSV emits it.
func Headers() []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c.header
	}
	return out
}

// Row returns the cells of a record in the order of Headers.
func (r Record) Row() []string {
	row := make([]string, len(columns))
	for i, c := range columns {
		row[i] = c.get(r)
	}
	return row
}

// WriteCSV writes a header row followed by one row per record. Writing an
// empty slice still produces the header row.
func WriteCSV(w io.Writer, records []Record) error {
	writer := csv.NewWriter(w)
	err := writer.Write(Headers())
	if err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range records {
		err = writer.Write(r.Row())
		if err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadCSV reads records by header name, unknown columns are ignored and
// missing ones are left unknown. A file with only a header is an empty
// batch.
func ReadCSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read csv: missing header row")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	byHeader := make(map[string]column, len(columns))
	for _, c := range columns {
		byHeader[c.header] = c
	}
	indexed := make([]*column, len(header))
	hasName := false
	hasGrams := false
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		c, ok := byHeader[h]
		if !ok {
			continue
		}
		indexed[i] = &c
		switch h {
		case HeaderName:
			hasName = true
		case HeaderServingGrams:
			hasGrams = true
		}
	}
	if !hasName {
		return nil, fmt.Errorf("read csv: no %q column in header", HeaderName)
	}

	records := []Record{}
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		var rec Record
		for i, cell := range row {
			if i >= len(indexed) || indexed[i] == nil {
				continue
			}
			indexed[i].set(&rec, cell)
		}
		if !hasGrams {
			rec.ServingGrams = ParseServingGrams(rec.ServingSize)
		}
		records = append(records, rec)
	}
	return records, nil
}
