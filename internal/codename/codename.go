package codename

import "math/rand/v2"

var adjectives = []string{
	"Silent", "Crimson", "Midnight", "Iron", "Phantom", "Golden", "Shadow",
	"Arctic", "Velvet", "Obsidian", "Scarlet", "Hidden", "Electric", "Silver",
	"Rogue", "Frozen", "Burning", "Hollow", "Emerald", "Restless", "Quiet",
	"Copper", "Wandering", "Cobalt", "Savage", "Lunar", "Stormy", "Ivory",
}

var nouns = []string{
	"Kraken", "Nightingale", "Falcon", "Viper", "Mongoose", "Raven", "Jackal",
	"Sparrow", "Cobra", "Lynx", "Hydra", "Scorpion", "Chameleon", "Osprey",
	"Wolf", "Panther", "Heron", "Basilisk", "Mantis", "Barracuda", "Owl",
	"Stingray", "Fox", "Griffin", "Hornet", "Coyote", "Marten", "Wasp",
}

const (
	tagAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	tagLen      = 3
)

// New returns a random codename such as "The Silent Kraken 4F2".
// Names are unique across all users, so the tag keeps collisions rare.
func New() string {
	return "The " + adjectives[rand.IntN(len(adjectives))] + " " + nouns[rand.IntN(len(nouns))] + " " + tag()
}

func tag() string {
	b := make([]byte, tagLen)
	for i := range b {
		b[i] = tagAlphabet[rand.IntN(len(tagAlphabet))]
	}
	return string(b)
}
