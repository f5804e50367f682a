package matching

// testIngredients 測試用食材表
func testIngredients() []Ingredient {
	return []Ingredient{
		{ID: "flour", Name: "All-Purpose Flour", Synonyms: []string{"plain flour"}, Category: "grain"},
		{ID: "sugar", Name: "Sugar", Synonyms: []string{"white sugar"}, Category: "sweetener"},
		{ID: "egg", Name: "Egg", Category: "dairy"},
		{ID: "banana", Name: "Banana", Category: "fruit"},
		{ID: "milk", Name: "Milk", Category: "dairy"},
		{ID: "oat_milk", Name: "Oat Milk", Category: "plant"},
		{ID: "tomato", Name: "Tomato", Category: "vegetable"},
		{ID: "pork", Name: "Pork", Category: "meat"},
		{ID: "tofu", Name: "Tofu", Category: "plant"},
		{ID: "rice", Name: "Rice", Category: "grain"},
		{ID: "scallion", Name: "Scallion", Synonyms: []string{"green onion", "spring onion"}, Category: "vegetable"},
	}
}

func testCategoryOf(id string) string {
	for _, ing := range testIngredients() {
		if ing.ID == id {
			return ing.Category
		}
	}
	return ""
}

func testRules() []SubstitutionRule {
	return []SubstitutionRule{
		{MissingID: "egg", SubstituteID: "banana", Score: 0.8, Categories: []string{"any"}},
		{MissingID: "milk", SubstituteID: "oat_milk", Score: 0.9},
		{MissingID: "pork", SubstituteID: "tofu", Score: 0.6, Categories: []string{"stir-fry"}},
	}
}

func pancakes() Recipe {
	return Recipe{
		ID:       "pancakes",
		Name:     "Pancakes",
		Category: "baking",
		Region:   "american",
		Ingredients: []RequiredIngredient{
			{IngredientID: "flour", Essential: true},
			{IngredientID: "sugar", Essential: true},
			{IngredientID: "egg", Essential: true},
		},
	}
}

func omelette() Recipe {
	return Recipe{
		ID:       "omelette",
		Name:     "Omelette",
		Category: "breakfast",
		Ingredients: []RequiredIngredient{
			{IngredientID: "egg", Essential: true},
			{IngredientID: "milk", Essential: false},
		},
	}
}

func friedRice() Recipe {
	return Recipe{
		ID:       "fried_rice",
		Name:     "Fried Rice",
		Category: "stir-fry",
		Region:   "taiwan",
		Ingredients: []RequiredIngredient{
			{IngredientID: "rice", Essential: true},
			{IngredientID: "pork", Essential: true},
			{IngredientID: "scallion", Essential: false},
		},
	}
}
