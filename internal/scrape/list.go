package scrape

import (
	"regexp"
	"strings"
)

type DomainRef struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

var (
	listIDRe   = regexp.MustCompile(`showDomainsDetails\((.*?)\);`)
	listNameRe = regexp.MustCompile(`<td>([a-zA-Z0-9_.äöüß-]+?)\s`)

	noResultMarkers = []string{
		"Es wurden keine Domains zu ihrer Suche nach",
		"Sie haben keine Domains gebucht",
	}
)

// ExtractDomainList pairs the ids and names of one domain list page by position.
func ExtractDomainList(body string) ([]DomainRef, error) {
	for _, m := range noResultMarkers {
		if strings.Contains(body, m) {
			return []DomainRef{}, nil
		}
	}

	ids := listIDRe.FindAllStringSubmatch(body, -1)
	names := listNameRe.FindAllStringSubmatch(body, -1)
	if len(ids) == 0 || len(names) == 0 {
		return nil, changed("no domains and no empty-result notice")
	}
	if len(ids) != len(names) {
		return nil, changed("%d domain ids but %d names", len(ids), len(names))
	}

	refs := make([]DomainRef, len(ids))
	for i := range ids {
		refs[i] = DomainRef{ID: strings.Trim(ids[i][1], `'" `), Name: names[i][1]}
	}
	return refs, nil
}
