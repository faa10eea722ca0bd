package keys

// FileResult is the outcome of extracting one file: the records and
// warnings the walker produced for it. The engine returns one of these per
// file from ExtractFile, and folds its KeyMap into a batch accumulator via
// KeyMap.Merge when running ExtractAll.
type FileResult struct {
	FilePath string
	KeyMap   *KeyMap
	Warnings []Warning
}
