package containers

type Statistics struct {
	GamesPlayed  int64
	NumberOfWins int64
	MeanScore    float64
	ScoreStdDev  float64
	TopWords     []Word
}

type Word struct {
	Word  string
	Count int
}
