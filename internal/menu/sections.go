package menu

import "strings"

const (
	placeholderSection = "Section"
	untitledRecipe     = "Untitled"
)

// BuildSections groups the widget's flat item list into sections. A
// "section*" item opens a section; a "recipe" item is appended to the
// section with its guid, and a recipe whose guid was never declared opens a
// placeholder section at that point. Other item types are ignored.
func BuildSections(items []RawMenuItem) []Section {
	var order []*Section
	byGUID := make(map[string]*Section)

	for _, item := range items {
		switch {
		case strings.HasPrefix(item.ItemType, "section"):
			title := placeholderSection
			if item.SectionName != nil {
				title = *item.SectionName
			}
			s := &Section{Title: title, Items: []string{}}
			order = append(order, s)
			byGUID[item.SectionGUID] = s
		case item.ItemType == "recipe":
			s, ok := byGUID[item.SectionGUID]
			if !ok {
				s = &Section{Title: placeholderSection, Items: []string{}}
				order = append(order, s)
				byGUID[item.SectionGUID] = s
			}
			name := untitledRecipe
			if item.RecipeName != nil {
				name = *item.RecipeName
			}
			s.Items = append(s.Items, name)
		}
	}

	sections := make([]Section, 0, len(order))
	for _, s := range order {
		sections = append(sections, *s)
	}
	return sections
}
