package linear

import (
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// createBenchmarkData はベンチマーク用のデータを生成する
func createBenchmarkData(rows, cols int) (*mat.Dense, *mat.Dense) {
	// シードを固定して再現性を確保
	rng := rand.New(rand.NewPCG(42, 42))

	X := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			X.Set(i, j, rng.Float64()*2.0-1.0)
		}
	}

	// y = 1 + X * w + 小さなノイズ
	y := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		sum := 1.0
		for j := 0; j < cols; j++ {
			sum += X.At(i, j) * float64(j+1) * 0.5
		}
		sum += (rng.Float64() - 0.5) * 0.1
		y.Set(i, 0, sum)
	}

	return X, y
}

var benchSizes = []struct {
	name string
	rows int
	cols int
}{
	{"Small_1000x13", 1000, 13},
	{"Housing_16512x16", 16512, 16},
	{"Large_50000x50", 50000, 50},
}

func BenchmarkRidgeFit(b *testing.B) {
	for _, size := range benchSizes {
		X, y := createBenchmarkData(size.rows, size.cols)
		b.Run(size.name, func(b *testing.B) {
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := NewRidge().Fit(X, y); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkLassoFit(b *testing.B) {
	for _, size := range benchSizes[:2] {
		X, y := createBenchmarkData(size.rows, size.cols)
		b.Run(size.name, func(b *testing.B) {
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := NewLasso(WithAlpha(0.01)).Fit(X, y); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkRidgePredict(b *testing.B) {
	X, y := createBenchmarkData(16512, 16)
	ridge := NewRidge()
	if err := ridge.Fit(X, y); err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ridge.Predict(X); err != nil {
			b.Fatal(err)
		}
	}
}
