package inference

// Architecture describes one servable model and its exported weight file.
type Architecture struct {
	ID          string
	WeightsFile string
	NumClasses  int
}

// architectures is the closed table of models the registry can load. It is
// both the allow-list and the dispatch table; its order is the default order
// reported by Known.
var architectures = []Architecture{
	{ID: "resnet18", WeightsFile: "resnet18.onnx", NumClasses: 1000},
	{ID: "alexnet", WeightsFile: "alexnet.onnx", NumClasses: 1000},
	{ID: "vgg16", WeightsFile: "vgg16.onnx", NumClasses: 1000},
	{ID: "inception_v3", WeightsFile: "inception_v3.onnx", NumClasses: 1000},
}

func LookupArchitecture(id string) (Architecture, bool) {
	for _, a := range architectures {
		if a.ID == id {
			return a, true
		}
	}
	return Architecture{}, false
}

// ArchitectureIDs lists every known model id in table order.
func ArchitectureIDs() []string {
	ids := make([]string, len(architectures))
	for i, a := range architectures {
		ids[i] = a.ID
	}
	return ids
}
