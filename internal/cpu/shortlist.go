package cpu

// Shortlist is the CPU's private candidate pool. Every entry is also in the
// embedded dictionary so CPU guesses always validate.
var Shortlist = []string{
	"ELMA", "KALE", "MASA", "KEDİ", "KAPI", "OKUL", "SAAT", "KUZU", "DERE", "TEPE", "OYUN", "PARA",

	"KALEM", "ELMAS", "MASAL", "KİTAP", "ÇİÇEK", "KÖPEK", "ŞEKER", "BALIK", "ARABA", "DENİZ",
	"GÜNEŞ", "ORMAN", "LİMON", "KİRAZ", "SABAH",

	"BARDAK", "DEFTER", "KAPLAN", "KARPUZ", "MUTFAK", "TOPRAK", "YAPRAK", "YILDIZ", "SÖZLÜK", "ZEYTİN",
}
