package domain

import "math"

// Grade is an air-quality category derived from PM10.
type Grade string

const (
	GradeGood   Grade = "good"
	GradeNormal Grade = "normal"
	GradeBad    Grade = "bad"
	GradeWorse  Grade = "worse"
)

// Grades lists every grade from cleanest to dirtiest.
var Grades = []Grade{GradeGood, GradeNormal, GradeBad, GradeWorse}

// gradeTable holds inclusive PM10 upper bounds in ascending order.
var gradeTable = []struct {
	upper float64
	grade Grade
}{
	{30, GradeGood},
	{80, GradeNormal},
	{150, GradeBad},
	{math.Inf(1), GradeWorse},
}

// GradeOf classifies a PM10 concentration.
func GradeOf(pm10 float64) Grade {
	for _, row := range gradeTable {
		if pm10 <= row.upper {
			return row.grade
		}
	}
	return GradeWorse
}

// Index returns the display position of g, or len(Grades) if unknown.
func (g Grade) Index() int {
	for i, v := range Grades {
		if v == g {
			return i
		}
	}
	return len(Grades)
}
