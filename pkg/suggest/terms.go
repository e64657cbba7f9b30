package suggest

// CommonTerms are well-known product searches offered when they contain the query.
var CommonTerms = []string{
	"iPhone",
	"Samsung Galaxy",
	"MacBook",
	"iPad",
	"AirPods",
	"Apple Watch",
	"PlayStation 5",
	"Xbox Series X",
	"Nintendo Switch",
	"Sony Headphones",
	"Dell XPS",
	"HP Laptop",
	"Canon Camera",
	"Nike Shoes",
	"Adidas Sneakers",
	"Smart TV",
	"Bluetooth Speaker",
}

var defaultPredictions = map[string][]string{
	"i":   {"iPhone", "iPad", "iMac", "iPhone 15", "iPhone 15 Pro", "iPad Pro", "iPad Air"},
	"ip":  {"iPhone", "iPad", "iPhone 15", "iPhone 15 Pro", "iPhone 14", "iPad Pro", "iPad Air", "iPad Mini"},
	"iph": {"iPhone", "iPhone 15", "iPhone 15 Pro", "iPhone 15 Pro Max", "iPhone 14", "iPhone 13"},
	"ipa": {"iPad", "iPad Pro", "iPad Air", "iPad Mini"},
	"s":   {"Samsung", "Samsung Galaxy", "Sony", "Smart TV", "Speaker", "Smartwatch"},
	"sa":  {"Samsung", "Samsung Galaxy", "Samsung Galaxy S24", "Samsung TV"},
	"sam": {"Samsung", "Samsung Galaxy", "Samsung Galaxy S24", "Samsung Galaxy S24 Ultra", "Samsung TV"},
	"so":  {"Sony", "Sony Headphones", "Sony PlayStation", "Sony Camera"},
	"m":   {"MacBook", "MacBook Air", "MacBook Pro", "Monitor", "Mouse"},
	"ma":  {"MacBook", "MacBook Air", "MacBook Pro", "Mac Mini"},
	"mac": {"MacBook", "MacBook Air", "MacBook Pro", "Mac Mini", "Mac Studio"},
	"a":   {"AirPods", "Apple Watch", "Apple", "Adidas", "Android"},
	"ai":  {"AirPods", "AirPods Pro", "AirPods Max"},
	"ap":  {"Apple", "Apple Watch", "Apple TV"},
	"p":   {"PlayStation", "PlayStation 5", "Pixel", "Printer"},
	"pl":  {"PlayStation", "PlayStation 5", "PlayStation Portal"},
	"x":   {"Xbox", "Xbox Series X", "Xbox Series S"},
	"n":   {"Nike", "Nintendo Switch", "Nike Shoes", "Nikon"},
	"ni":  {"Nike", "Nike Shoes", "Nintendo Switch", "Nikon"},
	"d":   {"Dell", "Dell XPS", "Drone", "Dyson"},
	"h":   {"HP Laptop", "Headphones", "Huawei"},
	"he":  {"Headphones", "Headset"},
	"c":   {"Canon Camera", "Camera", "Chromebook"},
	"l":   {"Laptop", "Lenovo", "LG TV"},
	"la":  {"Laptop", "Laptop Bag", "Laptop Stand"},
	"t":   {"TV", "Tablet", "Smart TV"},
	"b":   {"Bluetooth Speaker", "Bose", "Beats"},
}

// DefaultTable returns a fresh copy of the built-in prediction table.
func DefaultTable() *PredictionTable {
	t := NewTable()
	for prefix, terms := range defaultPredictions {
		t.Set(prefix, terms)
	}
	return t
}
