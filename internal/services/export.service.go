package services

import (
	"bytes"
	"time"

	. "martinspocos/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/xuri/excelize/v2"
)

const contractsSheet = "Contratos"

var contractExportHeaders = []string{
	"Número",
	"Status",
	"Cliente",
	"Documento",
	"WhatsApp",
	"Cidade",
	"Valor (R$)",
	"Garantia",
	"Criado em",
	"Assinado em",
}

// ExportService renders contract listings as xlsx workbooks for the sales office.
type ExportService struct {
	log logger.Logger
}

func NewExportService() *ExportService {
	return &ExportService{log: logger.New("ExportService")}
}

func (s *ExportService) ContractsWorkbook(contracts []*Contract) (*bytes.Buffer, error) {
	log := s.log.Function("ContractsWorkbook")

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.Warn("failed to close workbook", "error", err)
		}
	}()

	index, err := f.NewSheet(contractsSheet)
	if err != nil {
		return nil, log.Err("failed to create sheet", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"1F4E78"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, log.Err("failed to create header style", err)
	}

	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return nil, log.Err("failed to create money style", err)
	}

	for col, header := range contractExportHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(contractsSheet, cell, header); err != nil {
			return nil, log.Err("failed to write header", err, "cell", cell)
		}
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(contractExportHeaders), 1)
	if err := f.SetCellStyle(contractsSheet, "A1", lastHeader, headerStyle); err != nil {
		return nil, log.Err("failed to style header", err)
	}
	if err := f.SetColWidth(contractsSheet, "A", "J", 20); err != nil {
		return nil, log.Err("failed to set column width", err)
	}

	for i, contract := range contracts {
		row := i + 2
		for col, value := range contractExportRow(contract) {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(contractsSheet, cell, value); err != nil {
				return nil, log.Err("failed to write cell", err, "cell", cell)
			}
		}
		valueCell, _ := excelize.CoordinatesToCellName(7, row)
		if err := f.SetCellStyle(contractsSheet, valueCell, valueCell, moneyStyle); err != nil {
			return nil, log.Err("failed to style value cell", err, "cell", valueCell)
		}
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, log.Err("failed to remove default sheet", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, log.Err("failed to write workbook", err)
	}

	log.Info("Contracts workbook generated", "rows", len(contracts))
	return buf, nil
}

func contractExportRow(contract *Contract) []any {
	var whatsapp, city string
	if contract.ServiceRequest != nil {
		whatsapp = contract.ServiceRequest.Whatsapp
		city = contract.ServiceRequest.City
	}

	guarantee := "Não"
	if contract.HasGuarantee {
		guarantee = "Sim"
	}

	signedAt := ""
	if contract.SignedAt != nil {
		signedAt = contract.SignedAt.UTC().Format(time.DateTime)
	}

	value, _ := contract.ServiceValue.Float64()

	return []any{
		contract.ContractNumber,
		string(contract.Status),
		contract.ClientName,
		contract.ClientDocument,
		whatsapp,
		city,
		value,
		guarantee,
		contract.CreatedAt.UTC().Format(time.DateTime),
		signedAt,
	}
}
