// internal/macros/table.go

// Package macros holds the food-class reference table and the deterministic
// macro calculations built on it.
package macros

// Density is grams of each macronutrient per 100 g of a food class.
type Density struct {
	CarbsPer100g   float64 `json:"carbs_per_100g"`
	ProteinPer100g float64 `json:"protein_per_100g"`
	FatPer100g     float64 `json:"fat_per_100g"`
}

// ClassOther is the fallback class for names nothing else matches.
const ClassOther = "other"

var densities = map[string]Density{
	// staples
	"rice":     {28, 2.5, 0.5},
	"pasta":    {30, 5.5, 1.5},
	"bread":    {48, 9, 3},
	"potato":   {15, 2, 0.2},
	"veg":      {4, 1.5, 0.2},
	"legumes":  {15, 9, 1},
	"meat":     {0, 24, 8},
	"poultry":  {0, 26, 4},
	"fish":     {0, 22, 6},
	"eggs":     {1, 13, 11},
	"cheese":   {1, 25, 27},
	"oil":      {0, 0, 100},
	"sugar":    {100, 0, 0},
	"sauce":    {8, 1, 15},
	"fried":    {20, 9, 15},
	"dessert":  {40, 5, 15},
	"beverage": {10, 0.5, 0.2},
	ClassOther: {20, 5, 5},

	// burgers, sandwiches, wraps
	"pizza":          {27, 11, 10},
	"burger":         {25, 12, 12},
	"fish_burger":    {24, 12, 11},
	"chicken_burger": {24, 13, 10},
	"veggie_burger":  {28, 9, 10},
	"sandwich":       {30, 10, 8},
	"club_sandwich":  {29, 11, 9},
	"grilled_cheese": {32, 12, 14},
	"wrap":           {28, 11, 9},
	"falafel_wrap":   {29, 9, 10},
	"shawarma_wrap":  {25, 12, 10},
	"doner_wrap":     {25, 12, 10},
	"quesadilla":     {29, 12, 14},
	"burrito":        {26, 10, 10},
	"taco":           {20, 10, 9},
	"nachos":         {51, 8, 27},
	"fajitas":        {14, 12, 8},

	// rice dishes
	"sushi":             {25, 8, 5},
	"sushi_roll":        {27, 7, 4},
	"nigiri":            {23, 9, 4},
	"poke":              {23, 11, 7},
	"bibimbap":          {22, 9, 7},
	"kimchi_fried_rice": {29, 7, 8},
	"fried_rice":        {30, 6, 8},
	"biryani":           {28, 8, 7},
	"paella":            {23, 9, 6},
	"risotto":           {24, 6, 8},
	"jambalaya":         {21, 8, 6},

	// noodles
	"ramen":     {18, 8, 8},
	"pho":       {9, 6, 3},
	"laksa":     {13, 7, 5},
	"pad_thai":  {26, 9, 10},
	"chow_mein": {22, 7, 10},
	"lo_mein":   {22, 7, 9},

	// salads
	"salad_meal":   {8, 4, 6},
	"caesar_salad": {7, 7, 9},
	"greek_salad":  {5, 3, 8},
	"caprese":      {5, 5, 10},
	"tabbouleh":    {18, 4, 4},
	"buddha_bowl":  {20, 7, 8},

	// soups
	"soup":            {8, 4, 4},
	"cream_soup":      {7, 3, 5},
	"chowder":         {10, 5, 6},
	"tomato_soup":     {6, 2, 2},
	"minestrone":      {9, 3, 2},
	"kalakeitto_meal": {6, 4, 3},

	// breakfast
	"porridge":          {12, 4, 3},
	"yogurt":            {5, 4, 3},
	"kefir":             {5, 3, 3},
	"granola":           {60, 9, 12},
	"muesli":            {55, 10, 8},
	"omelette":          {2, 10, 10},
	"english_breakfast": {10, 9, 11},
	"shakshuka":         {7, 4, 6},
	"avocado_toast":     {24, 7, 13},
	"bagel_cc":          {45, 10, 6},
	"lox_bagel":         {32, 13, 7},

	// mezze
	"falafel":     {30, 8, 10},
	"hummus":      {15, 6, 9},
	"mezze_plate": {18, 7, 11},
	"moussaka":    {8, 6, 6},
	"kebab_plate": {18, 13, 14},
	"kebab_roll":  {22, 12, 11},

	// fried plates
	"french_fries":   {33, 3, 12},
	"fish_and_chips": {31, 8, 14},
	"schnitzel_meal": {18, 14, 10},
	"chicken_parm":   {13, 14, 9},
	"chicken_wings":  {0, 17, 14},

	// batter
	"pancake": {28, 7, 7},
	"waffle":  {30, 6, 8},
	"crepe":   {26, 7, 7},

	// sweets
	"cake":       {45, 5, 15},
	"cheesecake": {24, 6, 18},
	"brownie":    {60, 5, 22},
	"cookie":     {65, 6, 20},
	"muffin":     {48, 6, 16},
	"donut":      {47, 6, 24},
	"icecream":   {25, 4, 11},
	"sorbet":     {30, 0, 0},
	"pudding":    {20, 3, 3},
	"smoothie":   {15, 3, 2},
	"milkshake":  {18, 4, 5},

	// pasta dishes
	"lasagna":        {14, 9, 8},
	"carbonara_meal": {24, 9, 10},
	"bolognese_meal": {22, 10, 7},
	"pesto_pasta":    {28, 7, 12},
	"mac_and_cheese": {24, 9, 10},
	"gnocchi_meal":   {27, 6, 4},
	"ravioli_meal":   {28, 9, 7},

	// curries
	"butter_chicken":   {7, 9, 9},
	"tikka_masala":     {7, 10, 8},
	"korma_chicken":    {5, 9, 10},
	"saag_paneer":      {5, 10, 11},
	"chana_masala":     {12, 6, 3},
	"dal":              {12, 7, 3},
	"veg_curry":        {8, 3, 6},
	"thai_green_curry": {5, 3, 8},
	"thai_red_curry":   {5, 3, 8},

	// stews
	"beef_stew":        {6, 11, 6},
	"goulash":          {7, 9, 6},
	"chili_con_carne":  {10, 10, 7},
	"ratatouille_meal": {5, 2, 4},

	// nordic
	"maksalaatikko_meal":    {19, 7, 8},
	"kinkkukiusaus_meal":    {11, 8, 7},
	"poronkaristys_meal":    {5, 12, 9},
	"hernekeitto_meal":      {10, 6, 3},
	"lanttulaatikko_meal":   {13, 1, 2},
	"porkkanalaatikko_meal": {14, 2, 3},
	"lihapiirakka_meal":     {32, 8, 16},

	// plates with sides
	"steak_plate":   {6, 16, 10},
	"chicken_plate": {7, 16, 8},
	"fish_plate":    {6, 14, 8},
}

// aliases map free-text names (English and Finnish) to class keys. Keys are
// normalized when the index is built, so they may carry case and diacritics.
var aliases = map[string]string{
	"pizza": "pizza", "margherita": "pizza", "pepperoni pizza": "pizza",
	"burger": "burger", "hamburger": "burger", "cheeseburger": "burger",
	"fish burger": "fish_burger", "chicken burger": "chicken_burger", "veggie burger": "veggie_burger",
	"sandwich": "sandwich", "toastie": "sandwich", "panini": "sandwich", "club sandwich": "club_sandwich",
	"grilled cheese": "grilled_cheese", "voileipä": "sandwich",
	"wrap": "wrap", "tortilla wrap": "wrap", "shawarma wrap": "shawarma_wrap", "doner wrap": "doner_wrap",
	"falafel wrap": "falafel_wrap", "quesadilla": "quesadilla",
	"kebab plate": "kebab_plate", "kebab": "kebab_plate", "kebab roll": "kebab_roll", "kebab rulla": "kebab_roll",
	"burrito": "burrito", "taco": "taco", "nachos": "nachos", "fajitas": "fajitas",
	"sushi": "sushi", "sushi roll": "sushi_roll", "nigiri": "nigiri", "sashimi": "sushi",
	"poke": "poke", "poke bowl": "poke", "bibimbap": "bibimbap",
	"fried rice": "fried_rice", "kimchi fried rice": "kimchi_fried_rice",
	"biryani": "biryani", "paella": "paella", "risotto": "risotto", "jambalaya": "jambalaya",
	"ramen": "ramen", "pho": "pho", "laksa": "laksa", "pad thai": "pad_thai",
	"chow mein": "chow_mein", "lo mein": "lo_mein",
	"salad": "salad_meal", "green salad": "salad_meal", "garden salad": "salad_meal",
	"caesar salad": "caesar_salad", "greek salad": "greek_salad", "caprese": "caprese",
	"tabbouleh": "tabbouleh", "buddha bowl": "buddha_bowl",
	"soup": "soup", "tomato soup": "tomato_soup", "minestrone": "minestrone",
	"cream soup": "cream_soup", "chowder": "chowder",
	"kalakeitto": "kalakeitto_meal", "lohikeitto": "kalakeitto_meal",
	"porridge": "porridge", "oatmeal": "porridge", "kaurapuuro": "porridge",
	"yogurt": "yogurt", "jogurtti": "yogurt", "kefir": "kefir",
	"granola": "granola", "muesli": "muesli",
	"omelette": "omelette", "english breakfast": "english_breakfast", "shakshuka": "shakshuka",
	"avocado toast": "avocado_toast", "bagel with cream cheese": "bagel_cc", "lox bagel": "lox_bagel",
	"falafel": "falafel", "hummus": "hummus", "mezze": "mezze_plate", "mezze plate": "mezze_plate",
	"moussaka": "moussaka",
	"fries": "french_fries", "french fries": "french_fries", "ranskalaiset": "french_fries",
	"fish and chips": "fish_and_chips", "schnitzel": "schnitzel_meal", "chicken parm": "chicken_parm",
	"chicken wings": "chicken_wings",
	"pancake": "pancake", "lettu": "pancake", "crepe": "crepe", "waffle": "waffle", "vohveli": "waffle",
	"cake": "cake", "cheesecake": "cheesecake", "brownie": "brownie",
	"cookie": "cookie", "keksi": "cookie", "muffin": "muffin", "donut": "donut",
	"ice cream": "icecream", "jäätelö": "icecream", "sorbet": "sorbet", "pudding": "pudding",
	"smoothie": "smoothie", "milkshake": "milkshake",
	"lasagna": "lasagna", "lasagne": "lasagna",
	"carbonara": "carbonara_meal", "bolognese": "bolognese_meal",
	"pesto pasta": "pesto_pasta", "mac and cheese": "mac_and_cheese",
	"gnocchi": "gnocchi_meal", "ravioli": "ravioli_meal",
	"butter chicken": "butter_chicken", "tikka masala": "tikka_masala",
	"chicken korma": "korma_chicken", "saag paneer": "saag_paneer",
	"chana masala": "chana_masala", "dal": "dal",
	"veg curry": "veg_curry", "thai green curry": "thai_green_curry", "thai red curry": "thai_red_curry",
	"beef stew": "beef_stew", "goulash": "goulash",
	"chili con carne": "chili_con_carne", "ratatouille": "ratatouille_meal",
	"maksalaatikko": "maksalaatikko_meal", "kinkkukiusaus": "kinkkukiusaus_meal",
	"poronkäristys": "poronkaristys_meal", "hernekeitto": "hernekeitto_meal",
	"lanttulaatikko": "lanttulaatikko_meal", "porkkanalaatikko": "porkkanalaatikko_meal",
	"lihapiirakka": "lihapiirakka_meal",
	"steak plate": "steak_plate", "chicken plate": "chicken_plate", "fish plate": "fish_plate",

	// staples
	"white rice": "rice", "brown rice": "rice", "basmati": "rice", "jasmine rice": "rice",
	"riisi": "rice", "jasmiiniriisi": "rice", "basmatiriisi": "rice", "sushiriisi": "rice",
	"pasta": "pasta", "spaghetti": "pasta", "penne": "pasta", "nuudelit": "pasta",
	"bread": "bread", "leipä": "bread", "ruisleipä": "bread", "sämpylä": "bread",
	"potato": "potato", "peruna": "potato", "muusi": "potato",
	"salad (plain)": "veg", "vihannekset": "veg", "kasvikset": "veg",
	"beans": "legumes", "kikherneet": "legumes", "linssit": "legumes",
	"beef": "meat", "liha": "meat",
	"chicken": "poultry", "kana": "poultry",
	"salmon": "fish", "lohi": "fish", "fish": "fish",
	"egg": "eggs", "munat": "eggs",
	"cheese": "cheese", "juusto": "cheese",
	"olive oil": "oil", "oliiviöljy": "oil",
	"sugar": "sugar", "sokeri": "sugar",
	"sauce": "sauce", "kastike": "sauce",
	"fried": "fried", "leivitetty": "fried",
	"dessert": "dessert", "kakku": "dessert",
	"drink": "beverage", "mehu": "beverage", "soda": "beverage",
}

type keywordRule struct {
	class    string
	keywords []string
}

// heuristics apply in order when no alias matched; the first hit wins.
// Keywords are already in normalized form.
var heuristics = []keywordRule{
	{"pizza", []string{"pizza"}},
	{"burger", []string{"burger"}},
	{"wrap", []string{"wrap", "tortilla"}},
	{"burrito", []string{"burrito"}},
	{"taco", []string{"taco"}},
	{"sushi", []string{"sushi", "nigiri"}},
	{"poke", []string{"poke"}},
	{"ramen", []string{"ramen", "pho", "noodle"}},
	{"salad_meal", []string{"salad", "salaat"}},
	{"soup", []string{"soup", "keitto"}},
	{"pasta", []string{"pasta", "spag", "nuudel"}},
	{"rice", []string{"rice", "riisi"}},
	{"bread", []string{"bread", "leip"}},
	{"potato", []string{"potato", "perun"}},
	{"poultry", []string{"chicken", "kana", "turkey"}},
	{"meat", []string{"beef", "pork", "liha"}},
	{"fish", []string{"fish", "lohi", "tuna", "kala"}},
	{"eggs", []string{"egg", "muna"}},
	{"cheese", []string{"cheese", "juusto", "rahka"}},
	{"oil", []string{"oil", "oljy", "butter", "voi"}},
	{"sugar", []string{"sugar", "soker", "honey", "hunaj"}},
	{"sauce", []string{"sauce", "kastike", "mayo", "ketchup"}},
	{"fried", []string{"fried", "leivit", "nugget", "tempura"}},
	{"dessert", []string{"dessert", "kakku", "jaatelo", "cookie"}},
	{"beverage", []string{"drink", "mehu", "soda", "cola"}},
}
