package databases

import "go.mongodb.org/mongo-driver/mongo/options"

// Paginate returns find options selecting one page of limit documents.
// Pages start at 1.
func Paginate(limit, page int64) *options.FindOptions {
	if page < 1 {
		page = 1
	}
	skip := page*limit - limit
	return options.Find().SetLimit(limit).SetSkip(skip)
}
