package persist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/realmfikri/auctionsim/internal/ids"
)

// Metadata accumulates the run description written to metadata.json on
// Finalize: simulation-wide settings, the instrument list, the fair price
// model config, and the agent roster, mirroring the original's
// MetadataWriter.
type Metadata struct {
	Latency   ids.Timestamp
	Duration  ids.Timestamp
	Instruments []ids.InstrumentID
	FairPrice   json.RawMessage
	Agents      []agentMetadata
}

type agentMetadata struct {
	ClientID ids.ClientID    `json:"client_id"`
	Type     string          `json:"type"`
	Config   json.RawMessage `json:"config"`
	Seed     uint64          `json:"seed"`
	Latency  ids.Timestamp   `json:"latency"`
}

// SetLatency records the global base latency used for the run.
func (m *Metadata) SetLatency(latency ids.Timestamp) { m.Latency = latency }

// SetDuration records the run's configured duration.
func (m *Metadata) SetDuration(duration ids.Timestamp) { m.Duration = duration }

// AddInstrument appends an instrument to the recorded instrument list.
func (m *Metadata) AddInstrument(id ids.InstrumentID) { m.Instruments = append(m.Instruments, id) }

// SetFairPrice records the fair price model config as already-marshaled
// JSON (the caller's config.FairPriceConfig, re-marshaled with its model
// discriminator and seed already applied).
func (m *Metadata) SetFairPrice(raw json.RawMessage) { m.FairPrice = raw }

// AddAgent appends one agent's metadata entry; config is the agent's
// type-specific config struct, marshaled as-is.
func (m *Metadata) AddAgent(id ids.ClientID, agentType string, config any, seed uint64, latency ids.Timestamp) error {
	raw, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("persist: marshal agent %s config: %w", id, err)
	}
	m.Agents = append(m.Agents, agentMetadata{
		ClientID: id, Type: agentType, Config: raw, Seed: seed, Latency: latency,
	})
	return nil
}

// Write serializes the accumulated metadata to outputDir/metadata.json.
func (m *Metadata) Write(outputDir string) error {
	doc := struct {
		Simulation struct {
			Latency  ids.Timestamp `json:"latency"`
			Duration ids.Timestamp `json:"duration"`
		} `json:"simulation"`
		Instruments []ids.InstrumentID `json:"instruments"`
		FairPrice   json.RawMessage    `json:"fair_price,omitempty"`
		Agents      []agentMetadata    `json:"agents"`
	}{
		Instruments: m.Instruments,
		FairPrice:   m.FairPrice,
		Agents:      m.Agents,
	}
	doc.Simulation.Latency = m.Latency
	doc.Simulation.Duration = m.Duration

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("persist: marshal metadata: %w", err)
	}

	path := filepath.Join(outputDir, "metadata.json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("persist: write metadata.json: %w", err)
	}
	return nil
}
