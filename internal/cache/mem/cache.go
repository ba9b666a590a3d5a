package mem

import (
	"sort"
	"sync"

	"github.com/hailinhs/alumnisite/internal/domain"
	"github.com/hailinhs/alumnisite/internal/normalize"
)

// Cache keeps the alumni directory in memory, in the order it was loaded,
// with a lookup by normalized name.
type Cache struct {
	mu       sync.RWMutex
	valid    bool
	profiles []domain.AlumniProfile
	byName   map[string][]int
}

func New() *Cache {
	return &Cache{
		byName: make(map[string][]int),
	}
}

func (c *Cache) Update(profiles []domain.AlumniProfile) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.profiles = make([]domain.AlumniProfile, len(profiles))
	copy(c.profiles, profiles)
	c.byName = make(map[string][]int)
	for i := range c.profiles {
		name := normalize.Name(c.profiles[i].Name)
		c.byName[name] = append(c.byName[name], i)
	}
	c.valid = true
}

func (c *Cache) Valid() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.valid
}

func (c *Cache) GetByName(name string) []domain.AlumniProfile {
	c.mu.RLock()
	defer c.mu.RUnlock()

	idx := c.byName[normalize.Name(name)]
	out := make([]domain.AlumniProfile, 0, len(idx))
	for _, i := range idx {
		out = append(out, c.profiles[i])
	}
	return out
}

func (c *Cache) List() []domain.AlumniProfile {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.AlumniProfile, len(c.profiles))
	copy(out, c.profiles)
	return out
}

// Years returns the distinct graduation years, latest first.
func (c *Cache) Years() []int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[int]struct{})
	years := make([]int, 0)
	for _, p := range c.profiles {
		if _, ok := seen[p.GraduationYear]; ok {
			continue
		}
		seen[p.GraduationYear] = struct{}{}
		years = append(years, p.GraduationYear)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}

func (c *Cache) Locations() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]struct{})
	locations := make([]string, 0)
	for _, p := range c.profiles {
		if _, ok := seen[p.Location]; ok || p.Location == "" {
			continue
		}
		seen[p.Location] = struct{}{}
		locations = append(locations, p.Location)
	}
	sort.Strings(locations)
	return locations
}
