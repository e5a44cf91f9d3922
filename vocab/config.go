package vocab

// Config lists the canonical creature vocabularies. It is decoded from the
// [vocabulary] section of the config file.
type Config struct {
	Behaviours []string `toml:"behaviours"`
	Traits     []string `toml:"traits"`
}

// Creature holds the vocabularies used to normalize creature actors.
type Creature struct {
	Behaviours Vocabulary
	Traits     Vocabulary
}

// Creature builds the immutable vocabularies described by c.
func (c Config) Creature() Creature {
	return Creature{
		Behaviours: New(c.Behaviours...),
		Traits:     New(c.Traits...),
	}
}

// DefaultConfig returns the Traveller creature behaviours and traits.
func DefaultConfig() Config {
	return Config{
		Behaviours: []string{
			"herbivore",
			"omnivore",
			"carnivore",
			"scavenger",
			"carrionEater",
			"chaser",
			"eater",
			"filter",
			"gatherer",
			"grazer",
			"hijacker",
			"hunter",
			"intermittent",
			"intimidator",
			"killer",
			"pouncer",
			"reducer",
			"siren",
			"trapper",
		},
		Traits: []string{
			"alarm",
			"amphibious",
			"armour",
			"bioelectricity",
			"camouflaged",
			"echolocation",
			"fastMetabolism",
			"flyer",
			"heightenedSenses",
			"irVision",
			"large",
			"psionic",
			"slowMetabolism",
			"small",
			"uvVision",
		},
	}
}
