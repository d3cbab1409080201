// Package cache provides the bounded LRU memoization table used for spectral
// multipliers and effective profiles.
//
//	c, _ := cache.New[string, float64](10)
//	v, hit, err := c.GetOrCreate("key", func() (float64, error) {
//		return expensive()
//	})
//
// Eviction is exact least-recently-used: inserting into a full cache drops
// the single entry that was touched longest ago. Resize shrinks or grows the
// bound at any time.
//
// # Thread Safety
//
// Cache is safe for concurrent use and must not be copied after creation.
package cache
