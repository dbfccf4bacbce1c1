package gamedata

// =============================================================================
// DATA TABLES
// =============================================================================
//
// Skills and enemies are authored as id-keyed tables of raw records. A record
// may name a "template"; the template's keys act as defaults and the record's
// own keys override them (shallow, key by key).
//
// skills.json:
//
//	{
//	  "templates": { "strike": { "category": "attack", "action_cost": 5 } },
//	  "skills": {
//	    "basic_attack": {
//	      "template": "strike",
//	      "name": "Basic Attack",
//	      "description": "A simple attack",
//	      "effects": [{ "type": "damage", "params": { "base_value": 5 } }]
//	    }
//	  },
//	  "effects": { "damage": { "description": "...", "params": ["base_value"] } }
//	}
//
// enemies.json has the same shape with "enemies" in place of "skills". Enemy
// records may also set "extend_skills": true to append their skills to the
// template's list instead of replacing it.
//
// Either table can be overridden from a data directory holding
// skills.{json,yaml,yml} or enemies.{json,yaml,yml}. Override entries replace
// embedded entries with the same id; everything else is kept.

import (
	"fmt"
	"sort"
)

// Record is one raw data-table entry keyed by field name.
type Record = map[string]any

// EffectInfo documents an effect type in the skill table.
type EffectInfo struct {
	Description string   `json:"description" yaml:"description"`
	Params      []string `json:"params" yaml:"params"`
}

// SkillTables is the parsed content of skills.json.
type SkillTables struct {
	Templates map[string]Record     `json:"templates" yaml:"templates"`
	Skills    map[string]Record     `json:"skills" yaml:"skills"`
	Effects   map[string]EffectInfo `json:"effects" yaml:"effects"`
}

// EnemyTables is the parsed content of enemies.json.
type EnemyTables struct {
	Templates map[string]Record `json:"templates" yaml:"templates"`
	Enemies   map[string]Record `json:"enemies" yaml:"enemies"`
}

// LoadSkillTables loads the embedded skill table and applies any override
// found in dir.
func LoadSkillTables(dir string) (*SkillTables, error) {
	tables, err := Load[SkillTables]("skills.json")
	if err != nil {
		return nil, err
	}
	path, err := findOverride(dir, "skills")
	if err != nil {
		return nil, err
	}
	if path != "" {
		override, err := LoadFile[SkillTables](path)
		if err != nil {
			return nil, err
		}
		tables.Templates = overlay(tables.Templates, override.Templates)
		tables.Skills = overlay(tables.Skills, override.Skills)
		for k, v := range override.Effects {
			if tables.Effects == nil {
				tables.Effects = map[string]EffectInfo{}
			}
			tables.Effects[k] = v
		}
	}
	return &tables, nil
}

// MustLoadSkillTables loads the embedded skill table, panicking on error.
func MustLoadSkillTables() *SkillTables {
	tables, err := LoadSkillTables("")
	if err != nil {
		panic(err)
	}
	return tables
}

// IDs returns the skill ids in sorted order.
func (t *SkillTables) IDs() []string {
	return sortedKeys(t.Skills)
}

// Resolve returns the skill record with its template applied.
func (t *SkillTables) Resolve(id string) (Record, error) {
	entry, ok := t.Skills[id]
	if !ok {
		return nil, fmt.Errorf("skill %q not found", id)
	}
	return resolve(t.Templates, entry, false)
}

// LoadEnemyTables loads the embedded enemy table and applies any override
// found in dir.
func LoadEnemyTables(dir string) (*EnemyTables, error) {
	tables, err := Load[EnemyTables]("enemies.json")
	if err != nil {
		return nil, err
	}
	path, err := findOverride(dir, "enemies")
	if err != nil {
		return nil, err
	}
	if path != "" {
		override, err := LoadFile[EnemyTables](path)
		if err != nil {
			return nil, err
		}
		tables.Templates = overlay(tables.Templates, override.Templates)
		tables.Enemies = overlay(tables.Enemies, override.Enemies)
	}
	return &tables, nil
}

// MustLoadEnemyTables loads the embedded enemy table, panicking on error.
func MustLoadEnemyTables() *EnemyTables {
	tables, err := LoadEnemyTables("")
	if err != nil {
		panic(err)
	}
	return tables
}

// IDs returns the enemy ids in sorted order.
func (t *EnemyTables) IDs() []string {
	return sortedKeys(t.Enemies)
}

// Resolve returns the enemy record with its template applied, honoring
// extend_skills.
func (t *EnemyTables) Resolve(id string) (Record, error) {
	entry, ok := t.Enemies[id]
	if !ok {
		return nil, fmt.Errorf("enemy %q not found", id)
	}
	return resolve(t.Templates, entry, true)
}

// resolve merges entry over its named template. With extendable set, an
// entry carrying extend_skills: true appends its skills to the template's.
func resolve(templates map[string]Record, entry Record, extendable bool) (Record, error) {
	name, _ := entry["template"].(string)
	if name == "" {
		return copyRecord(entry), nil
	}
	template, ok := templates[name]
	if !ok {
		return nil, fmt.Errorf("unknown template %q", name)
	}

	out := make(Record, len(template)+len(entry))
	for k, v := range template {
		out[k] = v
	}
	for k, v := range entry {
		out[k] = v
	}
	delete(out, "template")

	if extend, _ := entry["extend_skills"].(bool); extendable && extend {
		out["skills"] = mergeLists(template["skills"], entry["skills"])
	}
	return out, nil
}

// mergeLists appends b to a, skipping values already present.
func mergeLists(a, b any) []any {
	first, _ := a.([]any)
	second, _ := b.([]any)
	out := make([]any, 0, len(first)+len(second))
	seen := make(map[string]bool, cap(out))
	for _, v := range append(append([]any{}, first...), second...) {
		if id, ok := v.(string); ok {
			if seen[id] {
				continue
			}
			seen[id] = true
		}
		out = append(out, v)
	}
	return out
}

func overlay(base, over map[string]Record) map[string]Record {
	if base == nil {
		base = make(map[string]Record, len(over))
	}
	for k, v := range over {
		base[k] = v
	}
	return base
}

func copyRecord(r Record) Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func sortedKeys(m map[string]Record) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
