package model

// capabilities maps each logical type to the statistics it supports.
// Checked at request time; requested statistics outside the set are
// omitted from the result rather than failing the call.
var capabilities = map[Kind]StatSet{
	KindInteger:  StatCounts | StatMinMax | StatMeanStddev | StatQuantiles | StatDistinct | StatTopK | StatHistogram,
	KindFloat:    StatCounts | StatMinMax | StatMeanStddev | StatQuantiles | StatDistinct | StatTopK | StatHistogram,
	KindString:   StatCounts | StatMinMax | StatDistinct | StatTopK | StatHistogram,
	KindBinary:   StatCounts | StatMinMax | StatDistinct,
	KindTemporal: StatCounts | StatMinMax | StatDistinct,
	KindBoolean:  StatCounts | StatMinMax | StatDistinct | StatBoolCounts,
	KindStruct:   StatCounts,
	KindList:     StatCounts,
}

// SupportedStats returns the statistic set a logical type supports
func SupportedStats(kind Kind) StatSet {
	return capabilities[kind]
}
