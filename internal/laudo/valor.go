package laudo

// DividirValorFinal reparte o valor final declarado (centavos) igualmente
// entre n laudos. A divisão é igualitária, não proporcional ao valor
// configurado de cada laudo; o texto do histórico financeiro depende desse
// comportamento. Centavos de resto vão para os primeiros laudos do lote, em
// ordem, para que a soma feche exata.
func DividirValorFinal(valorFinalCentavos int64, n int) []int64 {
	if n <= 0 {
		return nil
	}
	base := valorFinalCentavos / int64(n)
	resto := valorFinalCentavos % int64(n)
	out := make([]int64, n)
	for i := range out {
		out[i] = base
		if int64(i) < resto {
			out[i]++
		}
	}
	return out
}
