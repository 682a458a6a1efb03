package cache

import "strconv"

// Cache keys live in one place so the tiers never drift apart. Each key is a
// deterministic function of its inputs, which makes concurrent re-derivation
// safe: two writers racing on the same key produce the same value.
//
// The three tiers carry independent TTLs. The aggregate and frequency tiers
// expire quickly so the ranking stays fresh; per-word definitions live much
// longer because they almost never change.

// FrequenciesKey holds the corpus-wide word→count map.
const FrequenciesKey = "wordFrequencies:all"

// TopWordsKey returns the key of the materialized top-N definitions result.
func TopWordsKey(limit int) string {
	return "topWordsDefinitions:" + strconv.Itoa(limit)
}

// DefinitionKey returns the per-word definition key. Definitions are cached
// independently of the aggregate request that produced them, so a hit here
// benefits every future top-N computation that includes the word.
func DefinitionKey(word string) string {
	return "wordDefinition:" + word
}
