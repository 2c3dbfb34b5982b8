package prompts

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Difficulty selects how hard the interviewer questions are.
type Difficulty string

// Recognized difficulties.
const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Persona selects the interviewer's demeanor.
type Persona string

// Recognized personas.
const (
	PersonaFriendly Persona = "Friendly"
	PersonaNeutral  Persona = "Neutral"
	PersonaStrict   Persona = "Strict"
)

// Presets maps difficulties and personas to the instruction text injected
// into the interviewer directive. Loaded from an optional YAML file so the
// directive texture can be tuned without a rebuild.
type Presets struct {
	Personas     map[Persona]string    `yaml:"personas"`
	Difficulties map[Difficulty]string `yaml:"difficulties"`
}

// DefaultPresets returns the built-in persona and difficulty instructions.
func DefaultPresets() (presets Presets) {
	presets = Presets{
		Personas: map[Persona]string{
			PersonaFriendly: "Be encouraging and supportive.",
			PersonaNeutral:  "Be professional and neutral.",
			PersonaStrict:   "Be strict and challenging.",
		},
		Difficulties: map[Difficulty]string{
			DifficultyEasy:   "Ask basic conceptual questions.",
			DifficultyMedium: "Ask practical and applied questions.",
			DifficultyHard:   "Ask deep and advanced questions.",
		},
	}
	return presets
}

// LoadPresets reads a YAML preset file and merges it over the defaults.
// Entries missing from the file keep their built-in instruction.
func LoadPresets(path string) (presets Presets, err error) {
	presets = DefaultPresets()

	var data []byte
	data, err = os.ReadFile(path)
	if err != nil {
		err = errors.Wrapf(err, "failed to read presets file: %s", path)
		return presets, err
	}

	var loaded Presets
	err = yaml.Unmarshal(data, &loaded)
	if err != nil {
		err = errors.Wrapf(err, "failed to parse presets file: %s", path)
		return presets, err
	}

	for persona, instruction := range loaded.Personas {
		presets.Personas[persona] = instruction
	}
	for difficulty, instruction := range loaded.Difficulties {
		presets.Difficulties[difficulty] = instruction
	}

	return presets, err
}

// ValidDifficulty reports whether the presets know the given difficulty.
func (p Presets) ValidDifficulty(difficulty Difficulty) (ok bool) {
	_, ok = p.Difficulties[difficulty]
	return ok
}

// ValidPersona reports whether the presets know the given persona.
func (p Presets) ValidPersona(persona Persona) (ok bool) {
	_, ok = p.Personas[persona]
	return ok
}

func (p Presets) personaInstruction(persona Persona) (instruction string) {
	instruction = p.Personas[persona]
	return instruction
}

func (p Presets) difficultyInstruction(difficulty Difficulty) (instruction string) {
	instruction = p.Difficulties[difficulty]
	return instruction
}
