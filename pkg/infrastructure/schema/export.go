package schema

import (
	"encoding/json"
	"time"

	"github.com/printforge/spooltrack/pkg/domain/entities"
)

// ExportDocument is the interchange envelope: the snapshot plus metadata a
// reader can inspect without walking the entities.
type ExportDocument struct {
	Version     string             `json:"version"`
	ExportDate  time.Time          `json:"exportDate"`
	Application string             `json:"application"`
	Data        *entities.Snapshot `json:"data"`
	Metadata    ExportMetadata     `json:"metadata"`
}

// ExportMetadata summarizes an exported snapshot.
type ExportMetadata struct {
	TotalFilaments int      `json:"totalFilaments"`
	TotalModels    int      `json:"totalModels"`
	TotalPrints    int      `json:"totalPrints"`
	MaterialTypes  []string `json:"materialTypes"`
	Brands         []string `json:"brands"`
}

// Export serializes a snapshot into the interchange envelope. Migrate reads
// the result back; Import(Export(s), replace) reproduces s modulo stamped
// timestamps.
func Export(snap *entities.Snapshot) ([]byte, error) {
	doc := ExportDocument{
		Version:     entities.SnapshotVersion,
		ExportDate:  time.Now(),
		Application: entities.ApplicationName,
		Data:        snap,
		Metadata: ExportMetadata{
			TotalFilaments: len(snap.Filaments),
			TotalModels:    len(snap.Models),
			TotalPrints:    len(snap.Prints),
			MaterialTypes:  append([]string(nil), snap.MaterialTypes...),
			Brands:         snap.Brands(),
		},
	}
	return json.MarshalIndent(doc, "", "  ")
}
