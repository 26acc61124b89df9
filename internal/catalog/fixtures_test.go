package catalog

// Catalog rows as exported to the retrieval corpus: a canonical token, the
// course's own fields, then target-institution equivalents with credit ranges.
const (
	avcLectureRow = `ANTELOPE VALLEY COLL::BIOL::2251,ANTELOPE VALLEY COLL,BIOL,2251,Human Anatomy,"Study of the structure of the human body including cells, tissues, organs and systems.",ASU::BIO::201,BIO,201,Human Anatomy and Physiology I,"Structure and function of the human body, covering cells, tissues, skeletal, muscular and nervous systems.",4,4`

	avcLabRow = `ANTELOPE VALLEY COLL::BIOL::2251L,ANTELOPE VALLEY COLL,BIOL,2251L,Human Anatomy Laboratory,"Laboratory study of human anatomy using models, dissection and microscopy of tissues.",ASU::BIO::201L,BIO,201L,Human Anatomy Lab,"Hands-on laboratory companion covering anatomy of organ systems with models.",1,1`

	avcChemRow = `ANTELOPE VALLEY COLL::CHEM::101,ANTELOPE VALLEY COLL,CHEM,101,General Chemistry,"Fundamental principles of chemistry including atomic structure and bonding theory.",ASU::CHM::113,CHM,113,General Chemistry I,"Cannot find the course description",3,3`

	cerritosRow = `CERRITOS COLL::BIOL::2251,CERRITOS COLL,BIOL,2251,Anatomy,"Cerritos anatomy course covering the human body systems in a lecture format.",ASU::BIO::999,BIO,999,Unrelated Course,"This equivalent belongs to another institution and must never leak through.",3,3`
)

// asuOwnRow is a target-institution record of its own.
const asuOwnRow = `ASU::BIO::201,ASU,BIO,201,Human Anatomy and Physiology I,"Structure and function of the human body, covering cells, tissues and organ systems."`

// mixedCaseRow is an export whose institution names are not upper case.
const mixedCaseRow = `Antelope Valley Coll::biol::2251,Antelope Valley Coll,BIOL,2251,Human Anatomy,"Study of the structure of the human body including cells, tissues, organs and systems.",Asu::BIO::201,BIO,201,Human Anatomy and Physiology I,"Structure and function of the human body, covering cells, tissues, skeletal, muscular and nervous systems.",4,4`

const avcChunkText = avcLectureRow + "\n" + avcLabRow + "\n" + avcChemRow
