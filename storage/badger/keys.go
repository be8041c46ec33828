package badger

import (
	"encoding/binary"

	"github.com/vinolog/vinolog/core"
)

// Key prefixes for each record family. Index keys sort by the BigEndian
// encoded ID suffix, so iteration order within a prefix is insertion order.
const (
	scanJobPrefix       = "scnjob"
	scanStatusPrefix    = "scnjobs"
	scanIdemPrefix      = "scnjobk"
	scanSequenceName    = "scnjobseq"
	embJobPrefix        = "embjob"
	embStatusPrefix     = "embjobs"
	embSequenceName     = "embjobseq"
	enrichJobPrefix     = "enrjob"
	enrichStatusPrefix  = "enrjobs"
	enrichIdemPrefix    = "enrjobk"
	enrichSequenceName  = "enrjobseq"
	producerPrefix      = "prod"
	producerNamePrefix  = "prodna"
	producerSequence    = "prodseq"
	winePrefix          = "wine"
	wineNamePrefix      = "winena"
	wineSequenceName    = "wineseq"
	vintagePrefix       = "vint"
	vintageWinePrefix   = "vintwy"
	vintageSequenceName = "vintseq"
	varietalPrefix      = "vari"
	varietalVintPrefix  = "varivin"
	varietalSequence    = "variseq"
)

func beID(id core.ID) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(id))
	return buf[:]
}

func makeRecordKey(prefix string, id core.ID) []byte {
	key := make([]byte, 0, len(prefix)+9)
	key = append(key, prefix...)
	key = append(key, ':')
	key = append(key, beID(id)...)
	return key
}

func makePartialKey(prefix string) []byte {
	return []byte(prefix + ":")
}

// Status index keys carry the status as a single byte so that all jobs in
// a given state share one iteration prefix.
func makeStatusKey(prefix string, status core.JobStatus, id core.ID) []byte {
	key := make([]byte, 0, len(prefix)+11)
	key = append(key, prefix...)
	key = append(key, ':', byte(status), ':')
	key = append(key, beID(id)...)
	return key
}

func makePartialStatusKey(prefix string, status core.JobStatus) []byte {
	key := make([]byte, 0, len(prefix)+3)
	key = append(key, prefix...)
	key = append(key, ':', byte(status), ':')
	return key
}

func makeStringKey(prefix, value string) []byte {
	return []byte(prefix + ":" + value)
}

// Enrichment status index keys embed the inverted priority byte ahead of
// the ID so higher priorities sort first within a status prefix.
func makeEnrichStatusKey(status core.JobStatus, priority int, id core.ID) []byte {
	key := make([]byte, 0, len(enrichStatusPrefix)+13)
	key = append(key, enrichStatusPrefix...)
	key = append(key, ':', byte(status), ':', invertPriority(priority), ':')
	key = append(key, beID(id)...)
	return key
}

func makePartialEnrichStatusKey(status core.JobStatus) []byte {
	key := make([]byte, 0, len(enrichStatusPrefix)+3)
	key = append(key, enrichStatusPrefix...)
	key = append(key, ':', byte(status), ':')
	return key
}

func invertPriority(priority int) byte {
	if priority < 0 {
		priority = 0
	}
	if priority > 255 {
		priority = 255
	}
	return byte(255 - priority)
}

// Producer name index: prodna:<lowered name>:<BE id>. The ID suffix keeps
// keys unique when two producers share a lowered name.
func makeProducerNameKey(loweredName string, id core.ID) []byte {
	key := make([]byte, 0, len(producerNamePrefix)+len(loweredName)+10)
	key = append(key, producerNamePrefix...)
	key = append(key, ':')
	key = append(key, loweredName...)
	key = append(key, ':')
	key = append(key, beID(id)...)
	return key
}

// Wine name index: winena:<BE producer id>:<lowered name>:<BE id>.
func makeWineNameKey(producerID core.ID, loweredName string, id core.ID) []byte {
	key := make([]byte, 0, len(wineNamePrefix)+len(loweredName)+19)
	key = append(key, wineNamePrefix...)
	key = append(key, ':')
	key = append(key, beID(producerID)...)
	key = append(key, ':')
	key = append(key, loweredName...)
	key = append(key, ':')
	key = append(key, beID(id)...)
	return key
}

func makePartialWineNameKey(producerID core.ID) []byte {
	key := make([]byte, 0, len(wineNamePrefix)+10)
	key = append(key, wineNamePrefix...)
	key = append(key, ':')
	key = append(key, beID(producerID)...)
	key = append(key, ':')
	return key
}

// Vintage index: vintwy:<BE wine id>:<BE year>:<BE id>.
func makeVintageWineKey(wineID core.ID, year int, id core.ID) []byte {
	key := make([]byte, 0, len(vintageWinePrefix)+27)
	key = append(key, vintageWinePrefix...)
	key = append(key, ':')
	key = append(key, beID(wineID)...)
	key = append(key, ':')
	key = append(key, beID(core.ID(year))...)
	key = append(key, ':')
	key = append(key, beID(id)...)
	return key
}

func makePartialVintageWineKey(wineID core.ID, year int) []byte {
	key := make([]byte, 0, len(vintageWinePrefix)+19)
	key = append(key, vintageWinePrefix...)
	key = append(key, ':')
	key = append(key, beID(wineID)...)
	key = append(key, ':')
	key = append(key, beID(core.ID(year))...)
	key = append(key, ':')
	return key
}

// Varietal index: varivin:<BE vintage id>:<BE id>.
func makeVarietalVintageKey(vintageID core.ID, id core.ID) []byte {
	key := make([]byte, 0, len(varietalVintPrefix)+18)
	key = append(key, varietalVintPrefix...)
	key = append(key, ':')
	key = append(key, beID(vintageID)...)
	key = append(key, ':')
	key = append(key, beID(id)...)
	return key
}

func makePartialVarietalVintageKey(vintageID core.ID) []byte {
	key := make([]byte, 0, len(varietalVintPrefix)+10)
	key = append(key, varietalVintPrefix...)
	key = append(key, ':')
	key = append(key, beID(vintageID)...)
	key = append(key, ':')
	return key
}
