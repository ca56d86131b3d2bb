package inp

import (
	"fmt"
	"slices"
	"strings"
)

// Driver names a field in row 0 of a card whose value is the row count of
// the listed cards. A value of 0 means those cards are absent from the text.
type Driver struct {
	Field string
	Cards []string
}

// Card is one catalog entry. A card with static Rows occupies that many
// lines; a card named by another card's Driver takes its count from that
// driver; an External card takes its count from the caller.
type Card struct {
	ID       string
	Columns  []string
	Rows     int
	External bool
	Drivers  []Driver
}

// Catalog is the ordered card list of one master file format. Catalogs are
// built once at package init and never modified.
type Catalog struct {
	name   string
	cards  []Card
	index  map[string]int
	driven map[string]string // dependent card -> driver card
}

func newCatalog(name string, cards []Card) (*Catalog, error) {
	c := &Catalog{name: name, cards: cards, index: make(map[string]int, len(cards)), driven: map[string]string{}}
	for i, card := range cards {
		if _, dup := c.index[card.ID]; dup {
			return nil, fmt.Errorf("inp: catalog %s: duplicate card %s", name, card.ID)
		}
		c.index[card.ID] = i
	}
	for i, card := range cards {
		for _, d := range card.Drivers {
			if !slices.Contains(card.Columns, d.Field) {
				return nil, fmt.Errorf("inp: catalog %s: card %s has no driver field %s", name, card.ID, d.Field)
			}
			for _, dep := range d.Cards {
				j, ok := c.index[dep]
				if !ok || j <= i {
					return nil, fmt.Errorf("inp: catalog %s: driver %s.%s targets %s, which must be a later card", name, card.ID, d.Field, dep)
				}
				if prev, taken := c.driven[dep]; taken {
					return nil, fmt.Errorf("inp: catalog %s: card %s driven by both %s and %s", name, dep, prev, card.ID)
				}
				c.driven[dep] = card.ID
			}
		}
	}
	for _, card := range cards {
		_, driven := c.driven[card.ID]
		if (driven || card.External) && card.Rows != 0 {
			return nil, fmt.Errorf("inp: catalog %s: card %s has a static row count and a computed one", name, card.ID)
		}
		if driven && card.External {
			return nil, fmt.Errorf("inp: catalog %s: card %s is both driven and external", name, card.ID)
		}
	}
	return c, nil
}

func mustCatalog(name string, cards []Card) *Catalog {
	c, err := newCatalog(name, cards)
	if err != nil {
		panic(err)
	}
	return c
}

// Name is the file name the catalog describes.
func (c *Catalog) Name() string { return c.name }

// Cards returns the cards in declaration order.
func (c *Catalog) Cards() []Card {
	out := make([]Card, len(c.cards))
	for i, card := range c.cards {
		out[i] = card.clone()
	}
	return out
}

func (c *Catalog) Card(id string) (Card, bool) {
	i, ok := c.index[id]
	if !ok {
		return Card{}, false
	}
	return c.cards[i].clone(), true
}

// DrivenBy returns the card whose driver field sets id's row count.
func (c *Catalog) DrivenBy(id string) (string, bool) {
	d, ok := c.driven[id]
	return d, ok
}

func (card Card) clone() Card {
	out := card
	out.Columns = slices.Clone(card.Columns)
	out.Drivers = make([]Driver, len(card.Drivers))
	for i, d := range card.Drivers {
		out.Drivers[i] = Driver{Field: d.Field, Cards: slices.Clone(d.Cards)}
	}
	return out
}

func cols(s string) []string { return strings.Fields(s) }

// EFDC is the card catalog of efdc.inp, C02 through C17. Cards past C17 are
// carried through as trailing text.
var EFDC = mustCatalog("efdc.inp", []Card{
	{ID: "C02", Rows: 1, Columns: cols("ISRESTI ISDRY ISIMTMP ISIMWQ ISIMDYE TEMO RKDYE IASWRAD SWRATNF REVCHC DABEDT TBEDIT HTBED1 HTBED2 KBHM")},
	{ID: "C03", Rows: 1, Columns: cols("NTC NTSPTC TBEGIN")},
	{ID: "C04", Rows: 1, Columns: cols("IC JC LVC ISMASK KC ZBRADJ HMIN HADJ HDRY HWET BELADJ")},
	{ID: "C05", Rows: 1, Columns: cols("K DZC")},
	{ID: "C06", Rows: 1, Columns: cols("AHO AHD AVO ABO AVMN ABMN VISMUD AVBCON ZBRWALL")},
	{ID: "C07", Rows: 1, Columns: cols("NWSER NASER NTSER NQSIJ NQSER NQCTL NQCTLT NQWR NQWRSR"), Drivers: []Driver{
		{Field: "NQSIJ", Cards: []string{"C08", "C09"}},
		{Field: "NQCTL", Cards: []string{"C10"}},
		{Field: "NQWR", Cards: []string{"C11", "C12"}},
	}},
	{ID: "C08", Columns: cols("IQS JQS QSSE NQSMFF NQSERQ NT- ND- Qfactor")},
	{ID: "C09", Columns: cols("TEM DYE")},
	{ID: "C10", Columns: cols("IQCTLU JQCTLU IQCTLD JQCTLD NQCTYP NQCTLQ NQCMUL NQC_U NQC_D BQC_U BQC_D CREST SEEP")},
	{ID: "C11", Columns: cols("IWRU JWRU KWRU IWRD JCWRD KWRD QWRE NQW_RQ NQWR_U NQWR_D BQWR_U BQWR_D WD_BEGIN WD_END")},
	{ID: "C12", Columns: cols("TEMP DYEC")},
	{ID: "C13", Rows: 1, Columns: cols("ISPD NPD NPDRT NWPD ISLRPD ILRPD1 ILRPD2 JLRPD1 JLRPD2 IPLRPD"), Drivers: []Driver{
		{Field: "NPD", Cards: []string{"C14"}},
	}},
	{ID: "C14", Columns: cols("RI RJ RK")},
	{ID: "C15", Rows: 1, Columns: cols("ISTMSR MLTMSR NBTMSR NSTMSR NWTMSR"), Drivers: []Driver{
		{Field: "MLTMSR", Cards: []string{"C16"}},
	}},
	{ID: "C16", Columns: cols("ILTS JLTS MTSP MTSC MTSA MTSUE MTSUT MTSU MTSQE MTSQ CLTS")},
	{ID: "C17", Rows: 1, Columns: cols("WID IRELH RAINCVT EVAPCVT SOLRCVT CLDCVT TASER TWSER WSADJ WNDD STANAME")},
})

const chemistry = "Bc Bd Bg ROC LOC LDOC RDC ROP LOP LDOP RDP PO4t RPON LON LDON RDN NH4 NO3 SU SA COD DO TAM FCB DSE PSE"

// WQ3DWC is the card catalog of wq3dwc.inp. C40 holds one row per withdrawal
// and return pair declared by efdc.inp C07 NQWR and must be supplied as an
// extra length.
var WQ3DWC = mustCatalog("wq3dwc.inp", []Card{
	{ID: "C01", Rows: 1, Columns: cols("NWQTS IBINDMP IANOX IDNOTRVA"), Drivers: []Driver{
		{Field: "IANOX", Cards: []string{"C39"}},
	}},
	{ID: "C02", Rows: 1, Columns: cols(chemistry)},
	{ID: "C03", Rows: 1, Columns: cols("IWQDT IWQBEN IWQSI IWQFCB IWQSRP IWQSTOX IWQKA IWQVLIM")},
	{ID: "C04", Rows: 1, Columns: cols("IWQZ IWQNC IWQRST LDMWQ FNFIX WQGNC_T RFPO4 RMNLIMin BEN_UPKAKE")},
	{ID: "C05", Rows: 1, Columns: cols("IWQICI IWQPSL")},
	{ID: "C06", Rows: 1, Columns: cols("IWQTS TWQTSB TWQTSE WQTSDT NWQTSDTBIN"), Drivers: []Driver{
		{Field: "IWQTS", Cards: []string{"C07"}},
	}},
	{ID: "C07", Columns: cols("I J")},
	{ID: "C08", Rows: 1, Columns: cols("KHNc KHNd KHNg KHNm KHPc KHPd KHPg KHPm KHS STOX")},
	{ID: "C09", Rows: 1, Columns: cols("KeTSS KeChl CChlc CChld CChlg CChlm DOPTc DOPTd DOPTg DOPTm ISCOLOR KEOM")},
	{ID: "C10", Rows: 1, Columns: cols("I0 IsMIN FD CIa CIb CIc CIm Rea PARadj")},
	{ID: "C11", Rows: 1, Columns: cols("TMc1 TMc2 TMd1 TMd2 TMg1 TMg2 TMm1 TMm2 TMp1 TMp2")},
	{ID: "C12", Rows: 1, Columns: cols("KTG1c KTG2c KTG1d KTG2d KTG1g KTG2g KTG1m KTG2m KTG1p KTG2p")},
	{ID: "C13", Rows: 1, Columns: cols("TRc TRd TRg TRm KTBc KTBd KTBg KTBm")},
	{ID: "C14", Rows: 1, Columns: cols("FCRP FCLP FCDP FCDc FCDd FCDg KHRc KHRd KHRg")},
	{ID: "C15", Rows: 1, Columns: cols("FCRPm FCLPm FCDPm FCDm KHRm")},
	{ID: "C16", Rows: 1, Columns: cols("KRC KLC KDC KRCalg KLCalg KDCalg KDCalgm")},
	{ID: "C17", Rows: 1, Columns: cols("TRHDR TRMNL KTHDR KTMNL KHORDO KHDNN AANOX")},
	{ID: "C18", Rows: 1, Columns: cols("FPRP FPLP FPDP FPIP FPRc FPRd FPRg FPLc FPLd FPLg")},
	{ID: "C19", Rows: 1, Columns: cols("FPRPM FPLPM FPDPM FPIPM FPRm FPLm")},
	{ID: "C20", Rows: 1, Columns: cols("FPDc FPDd FPDg FPDm FPIc FPId FPIg FPIm KPO4P FRAC_CLEAVE")},
	{ID: "C21", Rows: 1, Columns: cols("KRP KLP KDP KRPalg KLPalg KDPalg CPprm1 CPprm2 CPprm3 ILUX APCINI FLDOPPRE RDPPRE")},
	{ID: "C22", Rows: 1, Columns: cols("FNRP FNLP FNDP FNIP FNRc FNRd FNRg FNLc FNLd FNLg")},
	{ID: "C23", Rows: 1, Columns: cols("FNRPM FNLPM FNDPM FNIPM FNRm FNLm")},
	{ID: "C24", Rows: 1, Columns: cols("FNDc FNDd FNDg FNDm FNIc FNId FNIg FNIm ANCc ANCd ANCg ANCm")},
	{ID: "C25", Rows: 1, Columns: cols("ANDC rNitM KHNitDO KHNitN TNit KNit1 KNit2")},
	{ID: "C26", Rows: 1, Columns: cols("KRN KLN KDN KRNalg KLNalg KDNalg")},
	{ID: "C27", Rows: 1, Columns: cols("FSPP FSIP FSPd FSId ASCd KSAp KSU TRSUA KTSUA")},
	{ID: "C28", Rows: 1, Columns: cols("AOCR AONT KRO KTR KHCOD KCD TRCOD KTCOD AOCRpm AOCRrm")},
	{ID: "C29", Rows: 1, Columns: cols("KHbmf BFTAM Ttam Ktam TAMdmx Kdotam KFCB TFCB")},
	{ID: "C30", Rows: 1, Columns: cols(chemistry + " Bm Bmin Algaemin")},
	{ID: "C31", Rows: 1, Columns: cols("PMc PMd PMg PMm BMRc BMRd BMRg BMRm PRRc PRRd PRRg PRRm Keb Zgrazec Zgrazed Zgrazeg Bfishm Efishm Fgrazem1 Fgrazem2")},
	{ID: "C32", Rows: 1, Columns: cols("WSc WSd WSg WSrp WSlp WSs WSM RNPREF")},
	{ID: "C33", Rows: 1, Columns: cols("FPO4 FNH4 FNO3 FSAD FCOD SOD")},
	{ID: "C34_1", Rows: 1, Columns: cols("IWQPS NPSTMSR"), Drivers: []Driver{
		{Field: "IWQPS", Cards: []string{"C34_2"}},
	}},
	{ID: "C34_2", Columns: cols("I J K N PSQ " + chemistry)},
	{ID: "C35", Rows: 1, Columns: cols("DSQ " + chemistry)},
	{ID: "C36", Rows: 1, Columns: cols(chemistry)},
	{ID: "C37", Rows: 10, Columns: cols("filename comment")},
	{ID: "C38", Rows: 1, Columns: cols("WQKRDC WQKRDN WQKRDP wQKRDCalg WQKRDNalg WQKRDPalg WQKPDC WQKPDN WQKPDP WQKPTH WQKPLGT WQKPTM0 WQKPTMP WQKRSE WQKRSE2 WQSEDOHF WQSE2DOHF WQSESET")},
	{ID: "C39", Columns: cols("threshold")},
	// PSE appears twice in the file's own column header.
	{ID: "C40", External: true, Columns: cols("WR_ID Bc Bd Bg ROC LOC LDOC RDC ROP LOP LDOP RDP PO4 RPON LON LDON RDN NH4 NO3 SU SA COD DO TAM FCB DSE PSE PSE")},
})
