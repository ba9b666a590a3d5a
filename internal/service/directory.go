package service

import (
	"github.com/hailinhs/alumnisite/internal/cache/mem"
	"github.com/hailinhs/alumnisite/internal/domain"
	"github.com/hailinhs/alumnisite/internal/normalize"
)

type DirectoryService struct {
	cache *mem.Cache
}

func NewDirectoryService(profiles []domain.AlumniProfile) *DirectoryService {
	c := mem.New()
	c.Update(profiles)
	return &DirectoryService{cache: c}
}

// Search matches query against name, profession and company ignoring case.
// A zero year or empty location does not filter.
func (s *DirectoryService) Search(query string, year int, location string) []domain.AlumniProfile {
	out := make([]domain.AlumniProfile, 0)
	for _, p := range s.cache.List() {
		if query != "" &&
			!normalize.Contains(p.Name, query) &&
			!normalize.Contains(p.Profession, query) &&
			!normalize.Contains(p.Company, query) {
			continue
		}
		if year != 0 && p.GraduationYear != year {
			continue
		}
		if location != "" && p.Location != location {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (s *DirectoryService) ByName(name string) []domain.AlumniProfile {
	return s.cache.GetByName(name)
}

func (s *DirectoryService) Years() []int {
	return s.cache.Years()
}

func (s *DirectoryService) Locations() []string {
	return s.cache.Locations()
}

func (s *DirectoryService) Count() int {
	return len(s.cache.List())
}
