package storage

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/san-kum/spinlab/internal/lattice"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteFieldCSV writes one i,j,sx,sy,sz row per site.
func WriteFieldCSV(w io.Writer, f *lattice.Field) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"i", "j", "sx", "sy", "sz"}); err != nil {
		return err
	}

	nx, ny := f.Dims()
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			s := f.Spin(i, j)
			row := []string{
				strconv.Itoa(i),
				strconv.Itoa(j),
				formatFloat(s.X),
				formatFloat(s.Y),
				formatFloat(s.Z),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteEnergyCSV writes one sample,energy row per trace entry.
func WriteEnergyCSV(w io.Writer, energies []float64) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"sample", "energy"}); err != nil {
		return err
	}
	for k, e := range energies {
		if err := cw.Write([]string{strconv.Itoa(k), formatFloat(e)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type SpinRecord struct {
	I  int     `json:"i"`
	J  int     `json:"j"`
	SX float64 `json:"sx"`
	SY float64 `json:"sy"`
	SZ float64 `json:"sz"`
}

type ExportData struct {
	Run      *RunMetadata `json:"run"`
	Spins    []SpinRecord `json:"spins"`
	Energies []float64    `json:"energies"`
}

// NewExportData flattens a stored run for JSON export.
func NewExportData(meta *RunMetadata, f *lattice.Field, energies []float64) ExportData {
	nx, ny := f.Dims()
	data := ExportData{
		Run:      meta,
		Spins:    make([]SpinRecord, 0, nx*ny),
		Energies: energies,
	}
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			s := f.Spin(i, j)
			data.Spins = append(data.Spins, SpinRecord{I: i, J: j, SX: s.X, SY: s.Y, SZ: s.Z})
		}
	}
	return data
}

func WriteJSON(w io.Writer, data ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
