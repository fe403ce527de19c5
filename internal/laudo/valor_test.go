package laudo

import "testing"

func TestDividirValorFinal(t *testing.T) {
	cases := []struct {
		nome  string
		valor int64
		n     int
		want  []int64
	}{
		{"divisão exata", 30000, 3, []int64{10000, 10000, 10000}},
		{"resto nos primeiros", 10000, 3, []int64{3334, 3333, 3333}},
		{"dois centavos de resto", 11, 3, []int64{4, 4, 3}},
		{"um laudo leva tudo", 12345, 1, []int64{12345}},
		{"zero reparte zero", 0, 4, []int64{0, 0, 0, 0}},
	}
	for _, tc := range cases {
		t.Run(tc.nome, func(t *testing.T) {
			got := DividirValorFinal(tc.valor, tc.n)
			if len(got) != len(tc.want) {
				t.Fatalf("len = %d, esperava %d", len(got), len(tc.want))
			}
			var soma int64
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("quota[%d] = %d, esperava %d", i, got[i], tc.want[i])
				}
				soma += got[i]
			}
			if soma != tc.valor {
				t.Fatalf("soma das quotas %d != valor final %d", soma, tc.valor)
			}
		})
	}
}

func TestDividirValorFinalLoteVazio(t *testing.T) {
	if got := DividirValorFinal(100, 0); got != nil {
		t.Fatalf("lote vazio deve devolver nil, veio %v", got)
	}
}

// A soma fecha exata para qualquer combinação razoável.
func TestDividirValorFinalSomaFecha(t *testing.T) {
	for valor := int64(0); valor < 500; valor += 7 {
		for n := 1; n <= 9; n++ {
			var soma int64
			quotas := DividirValorFinal(valor, n)
			for i, q := range quotas {
				soma += q
				if i > 0 && q > quotas[i-1] {
					t.Fatalf("quotas devem ser não crescentes (resto nos primeiros): %v", quotas)
				}
			}
			if soma != valor {
				t.Fatalf("valor %d em %d quotas: soma %d", valor, n, soma)
			}
		}
	}
}
