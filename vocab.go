package bdd2yolo

// The fixed BDD100K object category vocabulary.

// ClassID is the zero-based YOLO class index of a category.
type ClassID int

// NumCategories is the size of the category vocabulary.
const NumCategories = 11

// categoryNames lists the category names in class index order.
var categoryNames = [NumCategories]string{
	"bicycle",
	"bus",
	"car",
	"motorcycle",
	"other person",
	"other vehicle",
	"pedestrian",
	"rider",
	"trailer",
	"train",
	"truck",
}

// categoryIDs maps category names to their class index. Built once from categoryNames and never
// modified.
var categoryIDs = func() map[string]ClassID {
	m := make(map[string]ClassID, NumCategories)
	for i, name := range categoryNames {
		m[name] = ClassID(i)
	}
	return m
}()

// ResolveCategory returns the class index for the category name. The match is exact and case
// sensitive; ok is false for names outside the vocabulary.
func ResolveCategory(name string) (id ClassID, ok bool) {
	id, ok = categoryIDs[name]
	return id, ok
}

// CategoryNames returns a copy of the category names in class index order.
func CategoryNames() []string {
	names := make([]string, NumCategories)
	copy(names, categoryNames[:])
	return names
}
