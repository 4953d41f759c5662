package services

import "hash/fnv"

// RecognitionService is the image-recognition stub. Real inference is
// out of scope; callers only consume the data contract (grade label,
// confidence score, defect list). Results are derived from the draft
// key so repeated calls and tests are stable.
type RecognitionService struct{}

func NewRecognitionService() *RecognitionService { return &RecognitionService{} }

type RecognitionResult struct {
	GradeLabel string   `json:"grade_label"`
	GradeScore int      `json:"grade_score"`
	Defects    []string `json:"defects"`
}

var defectPool = []string{
	"faint screen scratches",
	"frame wear",
	"dust under the camera lens",
	"dented back panel",
}

func (s *RecognitionService) Analyze(draftKey string) RecognitionResult {
	h := fnv.New32a()
	h.Write([]byte(draftKey))
	v := h.Sum32()

	n := int(v % 3) // 0, 1 or 2 detected defects
	defects := make([]string, 0, n)
	for i := 0; i < n; i++ {
		defects = append(defects, defectPool[(int(v>>8)+i)%len(defectPool)])
	}

	switch n {
	case 0:
		return RecognitionResult{GradeLabel: "like new", GradeScore: 95 + int(v%5), Defects: defects}
	case 1:
		return RecognitionResult{GradeLabel: "excellent", GradeScore: 85 + int(v%5), Defects: defects}
	default:
		return RecognitionResult{GradeLabel: "good", GradeScore: 70 + int(v%10), Defects: defects}
	}
}
