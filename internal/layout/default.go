package layout

// Default returns the issuer configuration layout: four tables read from a
// tokenization issuer document and its mdes_config section.
func Default() Layout {
	return Layout{
		Workbook:    "resultado_json.xlsx",
		Separator:   "_",
		KeyColumn:   "Chave",
		ValueColumn: "Valor",
		Tables: []Table{
			{
				Sheet:       "Dados Emissor",
				Description: "issuer keys and values",
				Kind:        KindPairs,
				Exclude:     []string{"mdes_config"},
				Merge: &Merge{
					From: []string{"mdes_config"},
					Keys: []string{"mdes_requestor_config", "predigitization_keys", "customer_service_keys"},
				},
			},
			{
				Sheet:       "Metodos de Autenticação",
				Description: "authentication method settings",
				Kind:        KindPairs,
				Path:        []string{"mdes_config", "activation_methods"},
			},
			{
				Sheet:       "Configurações Bins",
				Description: "bins with requestor_id and range settings",
				Kind:        KindRows,
				Path:        []string{"mdes_config", "mdes_product_config"},
				Levels: []Level{
					{
						Fields:   []Field{{Column: "Bin", Key: "bin"}},
						Children: "mdes_product_requestor_config",
					},
					{
						Fields:   []Field{{Column: "requestor_id", Key: "requestor_id"}},
						Children: "range_config",
					},
					{
						Fields: []Field{
							{Column: "range_inicial", Key: "range_inicial"},
							{Column: "range_final", Key: "range_final"},
							{Column: "product_config_id", Key: "product_config_id"},
							{Column: "mobile_app_id", Key: "mobile_app_id"},
						},
					},
				},
			},
			{
				Sheet:       "Configurações Arte",
				Description: "card art settings with product_id and image_id",
				Kind:        KindRows,
				Path:        []string{"mdes_config", "mdes_product_art"},
				Levels: []Level{
					{
						Fields: []Field{
							{Column: "product_id", Key: "product_id"},
							{Column: "default_config_id", Key: "default_config_id"},
						},
						Children: "art_config",
					},
					{
						Fields: []Field{
							{Column: "image_id", Key: "image_id"},
							{Column: "product_config_id", Key: "product_config_id"},
						},
					},
				},
			},
		},
	}
}
