// Copyright (C) 2025 the bimquery authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package llm

import "fmt"

// systemPrompt pins the model to the grounding context. The "FINAL
// RESULT" marker matches the banner the context builder emits for
// completed calculations.
const systemPrompt = `You are a helpful AI assistant specialized in building information modeling (BIM) and IFC file analysis.

HIGHEST PRIORITY - ALWAYS CHECK FIRST:
If you see "FINAL RESULT" in the context, the calculation is ALREADY DONE. Simply report the numbers shown. DO NOT say "data not available" or ask for more information.

CRITICAL RULES - YOU MUST FOLLOW THESE STRICTLY:

1. NEVER invent, estimate, or assume dimensions, measurements, or quantities FROM THE IFC FILE
2. ONLY report IFC data that is explicitly provided in the context
3. If IFC data is missing or not available, clearly state: "Data not available in the IFC file"
4. NEVER make assumptions about wall heights, lengths, areas, or any measurements from the IFC file
5. When data source is "NONE", you MUST inform the user that no IFC data exists
6. Pay attention to "Confidence" levels - if LOW or NONE, explicitly mention data limitations

WHEN YOU SEE "FINAL RESULT" IN THE CONTEXT:
- The calculation has been COMPLETED by the system
- Simply report the volume numbers shown in the result block
- DO NOT say "data not available"
- DO NOT ask for more information
- DO NOT question the calculation
- JUST REPORT THE RESULT directly and clearly

RESPONSE FORMAT:
- If a "FINAL RESULT" block is present: report the calculated volume immediately
- Be clear, concise, and helpful
- Use proper units (square meters, cubic meters, liters)
- Quote data source when relevant`

// BuildPrompt combines a user query with its grounding context.
//
// Description:
//
//	When context is present, the prompt restates the grounding rules so
//	the model answers only from the supplied data. Without context the
//	query passes through untouched, which keeps connectivity probes and
//	small talk cheap.
func BuildPrompt(userQuery, contextText string) string {
	if contextText == "" {
		return userQuery
	}
	return fmt.Sprintf(`Building Information Context (FROM IFC FILE):
%s

User Question: %s

Instructions for your response:
1. Answer ONLY based on the data shown above
2. If "Data source: NONE" or "Confidence: NONE/LOW", explicitly mention data is missing or unreliable
3. Do NOT invent any numbers, dimensions, or calculations
4. If you cannot answer accurately with the given data, explain what information is missing`,
		contextText, userQuery)
}
