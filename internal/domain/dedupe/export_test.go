package dedupe

// Lookup returns the record id for a committed key.
func Lookup(d Deduper, key string) (string, bool) {
	return d.(*inMemoryDeduper).lookup(key)
}
