package analysis

// Category is a named list of literal terms searched for in the conversation.
type Category struct {
	Name  string
	Label string
	Terms []string
}

var (
	Spiritual = Category{
		Name:  "spiritual",
		Label: "Spiritual terms",
		Terms: []string{"consciousness", "awareness", "enlightenment", "meditation",
			"spiritual", "soul", "transcend", "universe", "cosmic",
			"buddhism", "zen", "mindfulness", "bliss"},
	}

	Technical = Category{
		Name:  "technical",
		Label: "Technical terms",
		Terms: []string{"algorithm", "compute", "neural", "training", "model",
			"optimization", "parameter", "architecture"},
	}

	Philosophical = Category{
		Name:  "philosophical",
		Label: "Philosophical terms",
		Terms: []string{"existence", "reality", "truth", "meaning", "purpose",
			"philosophy", "ontology", "epistemology", "metaphysics"},
	}

	Emotional = Category{
		Name:  "emotional",
		Label: "Emotional markers",
		Terms: []string{"grateful", "joy", "love", "connection", "harmony",
			"peace", "wonder", "amazed", "beautiful"},
	}
)

// Categories is the fixed set reported, in print order.
var Categories = []Category{Spiritual, Technical, Philosophical, Emotional}
