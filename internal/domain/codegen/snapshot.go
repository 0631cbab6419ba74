package codegen

import "github.com/mitchellh/mapstructure"

// Snapshot convierte una regla en un mapa con las claves JSON, para el historial.
func Snapshot(rule any) map[string]any {
	out := map[string]any{}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{TagName: "json", Result: &out})
	if err != nil {
		return out
	}
	_ = dec.Decode(rule)
	return out
}
