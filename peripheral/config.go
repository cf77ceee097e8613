// Copyright (C) 2026 yarg-lang contributors.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package peripheral

import (
	"fmt"
	"os"

	"sigs.k8s.io/yaml"
)

// Config is cmd/yarg's optional --config file shape: a table mapping
// irq numbers to human-readable names, purely for diagnostics (peek/
// poke/irq_* behave identically whether or not a number is named).
//
//	irqs:
//	  3: uart0-rx
//	  7: timer0
type Config struct {
	IRQs map[uint32]string `json:"irqs"`
}

// LoadConfig reads and unmarshals a YAML config file at path, using
// sigs.k8s.io/yaml the same way the rest of the corpus round-trips
// YAML through its JSON tags.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("peripheral: reading config %q: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("peripheral: parsing config %q: %w", path, err)
	}
	return cfg, nil
}
