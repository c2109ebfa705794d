package results

import (
	"bytes"
	"encoding/csv"

	"github.com/mkowal/ankieta/model"
)

// ExportCSV renders one header row plus one row per response. List values
// are joined with "; "; missing answers render empty. Field quoting and
// escaping follow encoding/csv. An empty survey yields a header-only file.
func ExportCSV(survey *model.Survey) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)

	if err := w.Write(headerRow(survey.Questions)); err != nil {
		return nil, err
	}
	for _, resp := range survey.Responses {
		if err := w.Write(responseRow(resp, survey.Questions)); err != nil {
			return nil, err
		}
	}

	w.Flush()
	return buf.Bytes(), w.Error()
}
