package models

// Category is the closed set of business categories. The zero value is not
// a valid category; ParseCategory is the only way in from user input.
type Category string

const (
	CategoryRestaurant    Category = "restaurant"
	CategoryCafe          Category = "cafe"
	CategoryBar           Category = "bar"
	CategoryBakery        Category = "bakery"
	CategoryGrocery       Category = "grocery"
	CategoryRetail        Category = "retail"
	CategoryFitness       Category = "fitness"
	CategoryBeauty        Category = "beauty"
	CategoryEntertainment Category = "entertainment"
	CategoryServices      Category = "services"
	CategoryOther         Category = "other"
)

// Categories lists every valid category in display order.
var Categories = []Category{
	CategoryRestaurant,
	CategoryCafe,
	CategoryBar,
	CategoryBakery,
	CategoryGrocery,
	CategoryRetail,
	CategoryFitness,
	CategoryBeauty,
	CategoryEntertainment,
	CategoryServices,
	CategoryOther,
}

var categorySet = func() map[Category]struct{} {
	set := make(map[Category]struct{}, len(Categories))
	for _, c := range Categories {
		set[c] = struct{}{}
	}
	return set
}()

// ParseCategory maps an input string to a category. Unrecognized strings
// return ok=false; callers reject them rather than silently dropping the
// filter.
func ParseCategory(s string) (Category, bool) {
	c := Category(s)
	_, ok := categorySet[c]
	return c, ok
}
