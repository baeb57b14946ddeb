package obj8

// Stats are counters of one read or write pass
type Stats struct {
	Meshes  int
	Lines   int
	Lights  int
	Smokes  int
	Dummies int

	MeshVertices  int
	LineVertices  int
	LightVertices int
	Faces         int
	Indices       int

	LODs int

	TranslationAnims int
	RotationAnims    int
	VisibilityAnims  int

	AttributeRecords   int
	ManipulatorRecords int
	GeometryRecords    int

	LinesRead    int
	LinesWritten int
}

func (s *Stats) Reset() {
	*s = Stats{}
}
