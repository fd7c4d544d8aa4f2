package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// recipesCreated counts successfully committed recipe creations.
	recipesCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "recipes_created_total",
			Help: "Total number of recipes created.",
		},
	)

	// collectionChanges counts favorite/cart toggles by collection and
	// operation ("add" or "remove").
	collectionChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collection_changes_total",
			Help: "Total number of favorite and shopping cart changes.",
		},
		[]string{"collection", "op"},
	)

	// shoppingListExports counts rendered shopping lists.
	shoppingListExports = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shopping_list_exports_total",
			Help: "Total number of shopping lists exported.",
		},
	)
)

func init() {
	prometheus.MustRegister(recipesCreated, collectionChanges, shoppingListExports)
}
