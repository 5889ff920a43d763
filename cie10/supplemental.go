package cie10

// supplementalEntries are merged after the file rows, in this order, and win
// over any file row with the same Variable.
var supplementalEntries = []Entry{
	{Code: "F32", Description: "Episodio depresivo"},
	{Code: "F33", Description: "Trastorno depresivo mayor, recurrente"},
	{Code: "F4", Description: "Trastorno de ansiedad, disociativo, relacionado con estrés y otros trastornos mentales somatomorfos no psicóticos"},
	{Code: "F40", Description: "Trastornos de ansiedad fóbica"},
	{Code: "F50", Description: "Trastornos de la conducta alimentaria"},
	{Code: "COGNITIV", Description: "Dimensión cognitiva"},
	{Code: "FAM_APO", Description: "Problemas y conflictos familiares"},
	{Code: "LAB_MOB", Description: "Problemas y conflictos laborales"},
	{Code: "No_DX", Description: "No diagnóstico"},
	{Code: "PAREJ", Description: "Problemas y conflictos de pareja"},
	{Code: "altas_capacidades", Description: "Altas capacidades intelectuales"},
}

// SupplementalEntries returns a copy of the fixed entries added to every
// mapping, before normalization.
func SupplementalEntries() []Entry {
	out := make([]Entry, len(supplementalEntries))
	copy(out, supplementalEntries)
	return out
}
