package syllable

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadPools reads the tiered fragment pools from a JSON file of the form
// {"easy": [...], "medium": [...], "hard": [...]}.
func LoadPools(path string) (Pools, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Pools{}, fmt.Errorf("read syllable pools: %w", err)
	}

	var pools Pools
	if err := json.Unmarshal(data, &pools); err != nil {
		return Pools{}, fmt.Errorf("parse syllable pools %s: %w", path, err)
	}

	if len(pools.Easy) == 0 {
		return Pools{}, fmt.Errorf("syllable pools %s: easy pool is empty", path)
	}
	return pools, nil
}
