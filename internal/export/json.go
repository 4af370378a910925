package export

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/fragtrack/internal/tracker"
)

// TrackData is the exported form of a track.
type TrackData struct {
	Event      int64          `json:"event"`
	Hypothesis string         `json:"hypothesis"`
	Side       string         `json:"side"`
	Charge     int            `json:"charge"`
	Position   [3]float64     `json:"position"`
	Momentum   [3]float64     `json:"momentum"`
	P          float64        `json:"p"`
	Beta       float64        `json:"beta"`
	Chi2       float64        `json:"chi2"`
	NDF        int            `json:"ndf"`
	Status     int            `json:"status"`
	Hits       map[string]int `json:"hits"`
}

type ExportData struct {
	Run    string      `json:"run"`
	Tracks []TrackData `json:"tracks"`
}

func NewExportData(run string, tracks []tracker.Track) ExportData {
	data := ExportData{Run: run, Tracks: make([]TrackData, len(tracks))}
	for i, t := range tracks {
		data.Tracks[i] = TrackData{
			Event:      t.Event,
			Hypothesis: t.Hypothesis,
			Side:       t.Side.String(),
			Charge:     t.Charge,
			Position:   [3]float64{t.Position.X, t.Position.Y, t.Position.Z},
			Momentum:   [3]float64{t.Momentum.X, t.Momentum.Y, t.Momentum.Z},
			P:          t.P(),
			Beta:       t.Beta,
			Chi2:       t.Chi2,
			NDF:        t.NDF,
			Status:     t.Status,
			Hits:       t.Hits,
		}
	}
	return data
}

func WriteJSON(w io.Writer, run string, tracks []tracker.Track) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewExportData(run, tracks))
}

// ExportJSON writes to path, or to stdout when path is "-".
func ExportJSON(path, run string, tracks []tracker.Track) error {
	if path == "-" {
		return WriteJSON(os.Stdout, run, tracks)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteJSON(f, run, tracks)
}
