package validate

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/firmlink/internal/model"
)

// sampleHeader is the column layout of the labeling workbook. The label
// column ships empty and is filled by the reviewer.
var sampleHeader = []string{
	"source_locator", "raw_name", "firm_id", "strategy",
	"final_confidence", "stratum", "label",
}

const sampleSheet = "sample"

// ExportXLSX writes a validation sample to an XLSX workbook for human
// labeling.
func ExportXLSX(sample model.ValidationSample, path string) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sampleSheet)
	if err != nil {
		return eris.Wrap(err, "validate: add sheet")
	}

	hdr := sheet.AddRow()
	for _, col := range sampleHeader {
		hdr.AddCell().SetString(col)
	}

	for _, item := range sample.Items {
		row := sheet.AddRow()
		row.AddCell().SetString(item.Result.SourceLocator)
		row.AddCell().SetString(item.Result.RawName)
		row.AddCell().SetString(item.Result.FirmID)
		row.AddCell().SetString(string(item.Result.Strategy))
		row.AddCell().SetFloat(item.Result.FinalConfidence)
		row.AddCell().SetString(item.Stratum)
		row.AddCell().SetString(string(item.Label))
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "validate: save sample workbook")
	}
	return nil
}

// ImportXLSX reads a labeled sample workbook back in. Rows with an
// unrecognized label are rejected so a typo never silently becomes an
// uncertain vote.
func ImportXLSX(runID, path string) (model.ValidationSample, error) {
	sample := model.ValidationSample{RunID: runID}

	f, err := xlsx.OpenFile(path)
	if err != nil {
		return sample, eris.Wrap(err, "validate: open sample workbook")
	}
	sheet, ok := f.Sheet[sampleSheet]
	if !ok {
		if len(f.Sheets) == 0 {
			return sample, eris.New("validate: workbook has no sheets")
		}
		sheet = f.Sheets[0]
	}

	for i, row := range sheet.Rows {
		if i == 0 {
			continue // header
		}
		cells := make([]string, len(sampleHeader))
		for j := range cells {
			if j < len(row.Cells) {
				cells[j] = strings.TrimSpace(row.Cells[j].String())
			}
		}
		if cells[0] == "" && cells[1] == "" {
			continue // trailing blank row
		}

		label := model.Label(strings.ToLower(cells[6]))
		switch label {
		case model.LabelUnlabeled, model.LabelCorrect, model.LabelIncorrect, model.LabelUncertain:
		default:
			return model.ValidationSample{RunID: runID},
				eris.Errorf("validate: row %d has unrecognized label %q", i+1, cells[6])
		}

		conf, err := parseConfidence(row, cells[4])
		if err != nil {
			return model.ValidationSample{RunID: runID}, eris.Wrapf(err, "validate: row %d", i+1)
		}

		sample.Items = append(sample.Items, model.SampleItem{
			Result: model.MatchResult{
				SourceLocator:   cells[0],
				RawName:         cells[1],
				FirmID:          cells[2],
				Strategy:        model.Strategy(cells[3]),
				FinalConfidence: conf,
			},
			Stratum: cells[5],
			Label:   label,
		})
	}
	return sample, nil
}

func parseConfidence(row *xlsx.Row, raw string) (float64, error) {
	if len(row.Cells) > 4 {
		if v, err := row.Cells[4].Float(); err == nil {
			return v, nil
		}
	}
	return 0, eris.Errorf("unparseable confidence %q", raw)
}
